package repository

import (
	"errors"

	"github.com/forknet/forknet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DriverRepository 骑手档案数据访问接口
type DriverRepository interface {
	Create(profile *models.DriverProfile) error
	GetByAccountID(accountID uint) (*models.DriverProfile, error)
	GetByAccountIDForUpdate(accountID uint) (*models.DriverProfile, error)
	ListAvailable() ([]models.DriverProfile, error)
	Update(profile *models.DriverProfile) error
	WithTx(tx *gorm.DB) *GormDriverRepository
}

// GormDriverRepository GORM 骑手仓储实现
type GormDriverRepository struct {
	db *gorm.DB
}

// NewDriverRepository 创建骑手仓储
func NewDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDriverRepository) WithTx(tx *gorm.DB) *GormDriverRepository {
	if tx == nil {
		return r
	}
	return &GormDriverRepository{db: tx}
}

// Create 创建骑手档案
func (r *GormDriverRepository) Create(profile *models.DriverProfile) error {
	return r.db.Create(profile).Error
}

// GetByAccountID 根据账户 ID 获取骑手档案
func (r *GormDriverRepository) GetByAccountID(accountID uint) (*models.DriverProfile, error) {
	if accountID == 0 {
		return nil, nil
	}
	var profile models.DriverProfile
	if err := r.db.Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByAccountIDForUpdate 根据账户 ID 加锁获取骑手档案
func (r *GormDriverRepository) GetByAccountIDForUpdate(accountID uint) (*models.DriverProfile, error) {
	if accountID == 0 {
		return nil, nil
	}
	var profile models.DriverProfile
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// ListAvailable 查询当前可接单的骑手
func (r *GormDriverRepository) ListAvailable() ([]models.DriverProfile, error) {
	var profiles []models.DriverProfile
	if err := r.db.Where("available = ? AND active_order_id IS NULL", true).
		Order("id asc").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update 更新骑手档案
func (r *GormDriverRepository) Update(profile *models.DriverProfile) error {
	return r.db.Save(profile).Error
}
