package models

import (
	"time"

	"gorm.io/gorm"
)

// ReputationRecord 信誉档案表
// 说明：每个账户一条累计档案，Tier 由累计分与完成单数派生。
type ReputationRecord struct {
	ID             uint           `gorm:"primarykey" json:"id"`                         // 主键
	AccountID      uint           `gorm:"uniqueIndex;not null" json:"account_id"`       // 账户ID
	Score          int            `gorm:"not null;default:0;index" json:"score"`        // 累计信誉分
	Tier           string         `gorm:"type:varchar(16);index;not null" json:"tier"`  // 当前等级
	CompletedCount int            `gorm:"not null;default:0" json:"completed_count"`    // 完成订单数
	OnTimeCount    int            `gorm:"not null;default:0" json:"on_time_count"`      // 准时完成数
	RatingSum      int            `gorm:"not null;default:0" json:"-"`                  // 评分累计（求均值用）
	RatingCount    int            `gorm:"not null;default:0" json:"rating_count"`       // 评分次数
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (ReputationRecord) TableName() string {
	return "reputation_records"
}

// AverageRating 平均评分（无评分时为 0）
func (r *ReputationRecord) AverageRating() float64 {
	if r.RatingCount == 0 {
		return 0
	}
	return float64(r.RatingSum) / float64(r.RatingCount)
}
