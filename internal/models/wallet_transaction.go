package models

import "time"

// WalletTransaction 钱包流水表
// 说明：追加式流水，Reference 全局唯一用于幂等去重，
// BalanceAfter 记录该笔流水落账后的余额快照。
type WalletTransaction struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                       // 主键
	WalletID     uint      `gorm:"index;not null" json:"wallet_id"`                            // 钱包ID
	AccountID    uint      `gorm:"index;not null" json:"account_id"`                           // 账户ID
	OrderID      *uint     `gorm:"index" json:"order_id,omitempty"`                            // 关联订单ID
	Type         string    `gorm:"type:varchar(32);index;not null" json:"type"`                // 流水类型
	Direction    string    `gorm:"type:varchar(8);not null" json:"direction"`                  // 方向（in/out）
	Amount       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`        // 金额（非负）
	BalanceAfter Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"` // 落账后余额
	Reference    string    `gorm:"uniqueIndex;not null" json:"reference"`                      // 幂等引用号
	Remark       string    `gorm:"type:varchar(255)" json:"remark,omitempty"`                  // 备注
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                                    // 记录时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
