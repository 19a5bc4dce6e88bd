package models

import (
	"time"

	"gorm.io/gorm"
)

// EscrowAccount 订单托管账户表
// 说明：每个订单至多一条，锁定顾客付款直至放款或退款。
// Released 与 Refunded 互斥，终态后金额不再变动。
type EscrowAccount struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID          uint           `gorm:"uniqueIndex;not null" json:"order_id"`                           // 订单ID
	CustomerID       uint           `gorm:"index;not null" json:"customer_id"`                              // 付款方账户ID
	Amount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`            // 托管总额
	RestaurantShare  int            `gorm:"not null;default:0" json:"restaurant_share"`                     // 餐厅分成比例（锁定时固定）
	DriverShare      int            `gorm:"not null;default:0" json:"driver_share"`                         // 骑手分成比例（锁定时固定）
	PlatformShare    int            `gorm:"not null;default:0" json:"platform_share"`                       // 平台分成比例（锁定时固定）
	RestaurantAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"restaurant_amount"` // 放款时餐厅分账
	DriverAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"driver_amount"`     // 放款时骑手分账
	PlatformAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"platform_amount"`   // 放款时平台分账
	Released         bool           `gorm:"not null;default:false;index" json:"released"`                   // 是否已放款
	Refunded         bool           `gorm:"not null;default:false;index" json:"refunded"`                   // 是否已退款
	LockedAt         time.Time      `gorm:"index" json:"locked_at"`                                         // 锁定时间
	ReleasedAt       *time.Time     `json:"released_at"`                                                    // 放款时间
	RefundedAt       *time.Time     `json:"refunded_at"`                                                    // 退款时间
	RefundReason     string         `gorm:"type:varchar(255)" json:"refund_reason,omitempty"`               // 退款原因
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (EscrowAccount) TableName() string {
	return "escrow_accounts"
}

// Settled 托管是否已进入终态
func (e *EscrowAccount) Settled() bool {
	return e.Released || e.Refunded
}
