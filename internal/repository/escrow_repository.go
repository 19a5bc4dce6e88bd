package repository

import (
	"errors"

	"github.com/forknet/forknet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EscrowRepository 托管账户数据访问接口
type EscrowRepository interface {
	Create(escrow *models.EscrowAccount) error
	GetByOrderID(orderID uint) (*models.EscrowAccount, error)
	GetByOrderIDForUpdate(orderID uint) (*models.EscrowAccount, error)
	Update(escrow *models.EscrowAccount) error
	CountPending() (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormEscrowRepository
}

// GormEscrowRepository GORM 托管仓储实现
type GormEscrowRepository struct {
	db *gorm.DB
}

// NewEscrowRepository 创建托管仓储
func NewEscrowRepository(db *gorm.DB) *GormEscrowRepository {
	return &GormEscrowRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEscrowRepository) WithTx(tx *gorm.DB) *GormEscrowRepository {
	if tx == nil {
		return r
	}
	return &GormEscrowRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormEscrowRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建托管账户
func (r *GormEscrowRepository) Create(escrow *models.EscrowAccount) error {
	return r.db.Create(escrow).Error
}

// GetByOrderID 根据订单 ID 获取托管账户
func (r *GormEscrowRepository) GetByOrderID(orderID uint) (*models.EscrowAccount, error) {
	if orderID == 0 {
		return nil, nil
	}
	var escrow models.EscrowAccount
	if err := r.db.Where("order_id = ?", orderID).First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &escrow, nil
}

// GetByOrderIDForUpdate 根据订单 ID 加锁获取托管账户
func (r *GormEscrowRepository) GetByOrderIDForUpdate(orderID uint) (*models.EscrowAccount, error) {
	if orderID == 0 {
		return nil, nil
	}
	var escrow models.EscrowAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &escrow, nil
}

// Update 更新托管账户
func (r *GormEscrowRepository) Update(escrow *models.EscrowAccount) error {
	return r.db.Save(escrow).Error
}

// CountPending 统计未结算托管数量
func (r *GormEscrowRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.EscrowAccount{}).
		Where("released = ? AND refunded = ?", false, false).
		Count(&count).Error
	return count, err
}
