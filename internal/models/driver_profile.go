package models

import (
	"time"

	"gorm.io/gorm"
)

// DriverProfile 骑手档案表
// 说明：driver 角色账户的接单信息，可上线/下线。
type DriverProfile struct {
	ID             uint           `gorm:"primarykey" json:"id"`                          // 主键
	AccountID      uint           `gorm:"uniqueIndex;not null" json:"account_id"`        // 账户ID
	Vehicle        string         `gorm:"type:varchar(64)" json:"vehicle"`               // 交通工具
	Available      bool           `gorm:"not null;default:false;index" json:"available"` // 是否可接单
	ActiveOrderID  *uint          `gorm:"index" json:"active_order_id,omitempty"`        // 当前配送中订单ID
	CompletedCount int            `gorm:"not null;default:0" json:"completed_count"`     // 完成配送次数
	OnTimeCount    int            `gorm:"not null;default:0" json:"on_time_count"`       // 准时配送次数
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (DriverProfile) TableName() string {
	return "driver_profiles"
}
