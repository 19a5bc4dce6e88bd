package models

import "time"

// ReputationEvent 信誉事件表
// 说明：追加式事件流水，记录每次计分的输入与得分，支持确定性重放。
type ReputationEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`                      // 主键
	AccountID uint      `gorm:"index;not null" json:"account_id"`          // 账户ID
	OrderID   uint      `gorm:"index;not null" json:"order_id"`            // 关联订单ID
	Completed bool      `gorm:"not null" json:"completed"`                 // 订单是否完成
	Rating    int       `gorm:"not null;default:0" json:"rating"`          // 顾客评分（0 表示未评分）
	OnTime    bool      `gorm:"not null" json:"on_time"`                   // 是否准时
	Delta     int       `gorm:"not null" json:"delta"`                     // 本次得分
	Remark    string    `gorm:"type:varchar(255)" json:"remark,omitempty"` // 备注
	CreatedAt time.Time `gorm:"index" json:"created_at"`                   // 记录时间
}

// TableName 指定表名
func (ReputationEvent) TableName() string {
	return "reputation_events"
}
