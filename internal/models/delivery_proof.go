package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryProof 送达凭证表
// 说明：订单确认送达后一次性铸发，TokenNo 单调递增，凭证不可变更。
type DeliveryProof struct {
	ID           uint           `gorm:"primarykey" json:"id"`                          // 主键
	ProofNo      string         `gorm:"uniqueIndex;not null" json:"proof_no"`          // 凭证编号（UUID）
	TokenNo      uint64         `gorm:"uniqueIndex;not null" json:"token_no"`          // 单调递增序号
	OrderID      uint           `gorm:"uniqueIndex;not null" json:"order_id"`          // 订单ID（一单一证）
	CustomerID   uint           `gorm:"index;not null" json:"customer_id"`             // 顾客账户ID
	RestaurantID uint           `gorm:"index;not null" json:"restaurant_id"`           // 餐厅档案ID
	DriverID     uint           `gorm:"index;not null" json:"driver_id"`               // 骑手账户ID
	CodeHash     string         `gorm:"type:varchar(64);not null" json:"code_hash"`    // 收货码哈希
	Amount       Money          `gorm:"type:decimal(20,2);not null" json:"amount"`     // 订单结算金额快照
	DeliveredAt  time.Time      `gorm:"index;not null" json:"delivered_at"`            // 送达时间
	OnTime       bool           `gorm:"not null" json:"on_time"`                       // 是否准时送达
	MetadataJSON JSON           `gorm:"type:json" json:"metadata"`                     // 附加元数据快照
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                       // 铸发时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (DeliveryProof) TableName() string {
	return "delivery_proofs"
}
