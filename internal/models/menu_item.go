package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuItem 菜单项表
type MenuItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`                              // 主键
	RestaurantID uint           `gorm:"index;not null" json:"restaurant_id"`               // 餐厅档案ID
	Name         string         `gorm:"not null" json:"name"`                              // 菜品名称
	Description  string         `gorm:"type:text" json:"description"`                      // 描述
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	ImageURL     string         `gorm:"type:varchar(500)" json:"image_url"`                // 图片
	Tags         StringArray    `gorm:"type:json" json:"tags"`                             // 标签
	Available    bool           `gorm:"not null;default:true;index" json:"available"`      // 是否可售
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`                 // 排序权重
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (MenuItem) TableName() string {
	return "menu_items"
}
