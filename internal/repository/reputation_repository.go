package repository

import (
	"errors"

	"github.com/forknet/forknet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReputationRepository 信誉数据访问接口
type ReputationRepository interface {
	GetRecordByAccountID(accountID uint) (*models.ReputationRecord, error)
	GetRecordByAccountIDForUpdate(accountID uint) (*models.ReputationRecord, error)
	CreateRecord(record *models.ReputationRecord) error
	UpdateRecord(record *models.ReputationRecord) error
	CreateEvent(event *models.ReputationEvent) error
	ListEvents(filter ReputationEventListFilter) ([]models.ReputationEvent, int64, error)
	WithTx(tx *gorm.DB) *GormReputationRepository
}

// GormReputationRepository GORM 信誉仓储实现
type GormReputationRepository struct {
	db *gorm.DB
}

// NewReputationRepository 创建信誉仓储
func NewReputationRepository(db *gorm.DB) *GormReputationRepository {
	return &GormReputationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReputationRepository) WithTx(tx *gorm.DB) *GormReputationRepository {
	if tx == nil {
		return r
	}
	return &GormReputationRepository{db: tx}
}

// GetRecordByAccountID 按账户ID获取信誉档案
func (r *GormReputationRepository) GetRecordByAccountID(accountID uint) (*models.ReputationRecord, error) {
	if accountID == 0 {
		return nil, nil
	}
	var record models.ReputationRecord
	if err := r.db.Where("account_id = ?", accountID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetRecordByAccountIDForUpdate 按账户ID加锁获取信誉档案
func (r *GormReputationRepository) GetRecordByAccountIDForUpdate(accountID uint) (*models.ReputationRecord, error) {
	if accountID == 0 {
		return nil, nil
	}
	var record models.ReputationRecord
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CreateRecord 创建信誉档案
func (r *GormReputationRepository) CreateRecord(record *models.ReputationRecord) error {
	return r.db.Create(record).Error
}

// UpdateRecord 更新信誉档案
func (r *GormReputationRepository) UpdateRecord(record *models.ReputationRecord) error {
	return r.db.Save(record).Error
}

// CreateEvent 写入信誉事件
func (r *GormReputationRepository) CreateEvent(event *models.ReputationEvent) error {
	return r.db.Create(event).Error
}

// ListEvents 分页查询信誉事件
func (r *GormReputationRepository) ListEvents(filter ReputationEventListFilter) ([]models.ReputationEvent, int64, error) {
	query := r.db.Model(&models.ReputationEvent{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var events []models.ReputationEvent
	if err := query.Order("id asc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
