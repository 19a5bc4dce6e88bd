package models

import (
	"time"

	"gorm.io/gorm"
)

// Account 账户表
// 说明：平台的统一账户，按角色区分顾客、餐厅、骑手与管理员。
type Account struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                             // 主键
	Address            string         `gorm:"uniqueIndex;not null" json:"address"`              // 账户地址（全局唯一标识）
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`                // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                                // 密码哈希（不返回给前端）
	DisplayName        string         `gorm:"default:''" json:"display_name"`                   // 昵称
	Role               string         `gorm:"type:varchar(20);index;not null" json:"role"`      // 角色（customer/restaurant/driver/admin）
	Status             string         `gorm:"default:'active';index" json:"status"`             // 账号状态（active/suspended）
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                      // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                   // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                                    // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                          // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

// IsActive 账户是否处于可用状态
func (a *Account) IsActive() bool {
	return a.Status == "active"
}
