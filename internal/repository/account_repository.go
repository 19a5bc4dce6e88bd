package repository

import (
	"errors"
	"strings"

	"github.com/forknet/forknet/internal/models"

	"gorm.io/gorm"
)

// AccountRepository 账户数据访问接口
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByAddress(address string) (*models.Account, error)
	List(filter AccountListFilter) ([]models.Account, int64, error)
	Update(account *models.Account) error
	UpdateFields(id uint, updates map[string]interface{}) error
	CreateLoginLog(log *models.AccountLoginLog) error
	ListLoginLogs(filter AccountLoginLogListFilter) ([]models.AccountLoginLog, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormAccountRepository
}

// GormAccountRepository GORM 账户仓储实现
type GormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAccountRepository) WithTx(tx *gorm.DB) *GormAccountRepository {
	if tx == nil {
		return r
	}
	return &GormAccountRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormAccountRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建账户
func (r *GormAccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// GetByID 根据 ID 获取账户
func (r *GormAccountRepository) GetByID(id uint) (*models.Account, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByEmail 根据邮箱获取账户
func (r *GormAccountRepository) GetByEmail(email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByAddress 根据账户地址获取账户
func (r *GormAccountRepository) GetByAddress(address string) (*models.Account, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Where("address = ?", address).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// List 分页查询账户
func (r *GormAccountRepository) List(filter AccountListFilter) ([]models.Account, int64, error) {
	query := r.db.Model(&models.Account{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("email LIKE ? OR display_name LIKE ? OR address LIKE ?", like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var accounts []models.Account
	if err := query.Order("id desc").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Update 更新账户
func (r *GormAccountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}

// UpdateFields 按字段更新账户
func (r *GormAccountRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error
}

// CreateLoginLog 写入登录日志
func (r *GormAccountRepository) CreateLoginLog(log *models.AccountLoginLog) error {
	return r.db.Create(log).Error
}

// ListLoginLogs 分页查询登录日志
func (r *GormAccountRepository) ListLoginLogs(filter AccountLoginLogListFilter) ([]models.AccountLoginLog, int64, error) {
	query := r.db.Model(&models.AccountLoginLog{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", strings.ToLower(strings.TrimSpace(filter.Email)))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientIP != "" {
		query = query.Where("client_ip = ?", filter.ClientIP)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.AccountLoginLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
