package models

import (
	"time"

	"gorm.io/gorm"
)

// RestaurantProfile 餐厅档案表
// 说明：restaurant 角色账户的经营信息，含配送费与营业开关。
type RestaurantProfile struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                   // 主键
	AccountID   uint           `gorm:"uniqueIndex;not null" json:"account_id"`                 // 账户ID
	Name        string         `gorm:"index;not null" json:"name"`                             // 餐厅名称
	Description string         `gorm:"type:text" json:"description"`                           // 简介
	Cuisine     string         `gorm:"type:varchar(64);index" json:"cuisine"`                  // 菜系
	Address     string         `gorm:"type:varchar(255)" json:"address"`                       // 门店地址
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url"`                     // 封面图
	DeliveryFee Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"` // 配送费
	Rating      float64        `gorm:"not null;default:0" json:"rating"`                       // 平均评分
	RatingCount int            `gorm:"not null;default:0" json:"rating_count"`                 // 评分次数
	IsOpen      bool           `gorm:"not null;default:true;index" json:"is_open"`             // 是否营业
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间

	MenuItems []MenuItem `gorm:"foreignKey:RestaurantID" json:"menu_items,omitempty"` // 菜单
}

// TableName 指定表名
func (RestaurantProfile) TableName() string {
	return "restaurant_profiles"
}
