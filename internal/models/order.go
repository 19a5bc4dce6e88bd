package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 说明：订单主状态机载体，记录三方参与者、金额快照与关键节点时间。
type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                       // 主键
	OrderNo          string         `gorm:"uniqueIndex;not null" json:"order_no"`                       // 订单编号
	CustomerID       uint           `gorm:"index;not null" json:"customer_id"`                          // 顾客账户ID
	RestaurantID     uint           `gorm:"index;not null" json:"restaurant_id"`                        // 餐厅档案ID
	DriverID         *uint          `gorm:"index" json:"driver_id,omitempty"`                           // 骑手账户ID（指派后填入）
	Status           string         `gorm:"index;not null" json:"status"`                               // 订单状态
	Subtotal         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`      // 菜品小计
	DeliveryFee      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`  // 配送费
	Tax              Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`           // 税费
	TotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`  // 实付总额
	DeliveryAddress  string         `gorm:"type:varchar(255);not null" json:"delivery_address"`         // 收货地址
	Note             string         `gorm:"type:varchar(500)" json:"note,omitempty"`                    // 备注
	DeliveryCode     string         `gorm:"type:varchar(16)" json:"-"`                                  // 收货码明文（仅配送中存在，结算后清除）
	DeliveryCodeHash string         `gorm:"type:varchar(64);index" json:"-"`                            // 收货码哈希
	Rating           *int           `json:"rating,omitempty"`                                           // 顾客评分（1-5，确认收货时给出）
	ClientIP         string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                // 下单客户端IP
	EscrowedAt       *time.Time     `gorm:"index" json:"escrowed_at"`                                   // 资金托管时间
	ReadyAt          *time.Time     `json:"ready_at"`                                                   // 出餐时间
	AssignedAt       *time.Time     `json:"assigned_at"`                                                // 指派骑手时间
	PickedUpAt       *time.Time     `gorm:"index" json:"picked_up_at"`                                  // 取餐开始配送时间
	DeliveryDeadline *time.Time     `gorm:"index" json:"delivery_deadline"`                             // 配送超时退款截止时间
	DeliveredAt      *time.Time     `json:"delivered_at"`                                               // 送达确认时间
	SettledAt        *time.Time     `gorm:"index" json:"settled_at"`                                    // 结算时间
	CanceledAt       *time.Time     `gorm:"index" json:"canceled_at"`                                   // 取消时间
	RefundedAt       *time.Time     `gorm:"index" json:"refunded_at"`                                   // 退款时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Items        []OrderItem        `gorm:"foreignKey:OrderID" json:"items,omitempty"`         // 订单项
	StateChanges []OrderStateChange `gorm:"foreignKey:OrderID" json:"state_changes,omitempty"` // 状态流转记录
	// 关联
	Escrow *EscrowAccount `gorm:"foreignKey:OrderID" json:"escrow,omitempty"` // 托管账户
	Proof  *DeliveryProof `gorm:"foreignKey:OrderID" json:"proof,omitempty"`  // 送达凭证
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
