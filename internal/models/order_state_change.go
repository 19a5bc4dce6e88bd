package models

import "time"

// OrderStateChange 订单状态流转记录
// 说明：追加式审计，记录每次状态迁移的前后状态、操作者与原因。
type OrderStateChange struct {
	ID         uint      `gorm:"primarykey" json:"id"`                       // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`             // 订单ID
	FromStatus string    `gorm:"type:varchar(32);not null" json:"from_status"` // 迁移前状态
	ToStatus   string    `gorm:"type:varchar(32);not null" json:"to_status"` // 迁移后状态
	ActorID    uint      `gorm:"index" json:"actor_id"`                      // 操作者账户ID（系统触发为0）
	ActorRole  string    `gorm:"type:varchar(20)" json:"actor_role"`         // 操作者角色（system 表示自动任务）
	Reason     string    `gorm:"type:varchar(255)" json:"reason,omitempty"`  // 迁移原因
	RequestID  string    `gorm:"type:varchar(64);index" json:"request_id"`   // 请求追踪ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                    // 记录时间
}

// TableName 指定表名
func (OrderStateChange) TableName() string {
	return "order_state_changes"
}
