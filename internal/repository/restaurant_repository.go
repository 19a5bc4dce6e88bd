package repository

import (
	"errors"
	"strings"

	"github.com/forknet/forknet/internal/models"

	"gorm.io/gorm"
)

// RestaurantRepository 餐厅档案与菜单数据访问接口
type RestaurantRepository interface {
	CreateProfile(profile *models.RestaurantProfile) error
	GetProfileByID(id uint) (*models.RestaurantProfile, error)
	GetProfileByAccountID(accountID uint) (*models.RestaurantProfile, error)
	ListProfiles(filter RestaurantListFilter) ([]models.RestaurantProfile, int64, error)
	UpdateProfile(profile *models.RestaurantProfile) error
	CreateMenuItem(item *models.MenuItem) error
	GetMenuItemByID(id uint) (*models.MenuItem, error)
	GetMenuItemsByIDs(restaurantID uint, ids []uint) ([]models.MenuItem, error)
	ListMenuItems(restaurantID uint, onlyAvailable bool) ([]models.MenuItem, error)
	UpdateMenuItem(item *models.MenuItem) error
	DeleteMenuItem(id uint) error
	WithTx(tx *gorm.DB) *GormRestaurantRepository
}

// GormRestaurantRepository GORM 餐厅仓储实现
type GormRestaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository 创建餐厅仓储
func NewRestaurantRepository(db *gorm.DB) *GormRestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRestaurantRepository) WithTx(tx *gorm.DB) *GormRestaurantRepository {
	if tx == nil {
		return r
	}
	return &GormRestaurantRepository{db: tx}
}

// CreateProfile 创建餐厅档案
func (r *GormRestaurantRepository) CreateProfile(profile *models.RestaurantProfile) error {
	return r.db.Create(profile).Error
}

// GetProfileByID 根据 ID 获取餐厅档案
func (r *GormRestaurantRepository) GetProfileByID(id uint) (*models.RestaurantProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.RestaurantProfile
	if err := r.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByAccountID 根据账户 ID 获取餐厅档案
func (r *GormRestaurantRepository) GetProfileByAccountID(accountID uint) (*models.RestaurantProfile, error) {
	if accountID == 0 {
		return nil, nil
	}
	var profile models.RestaurantProfile
	if err := r.db.Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// ListProfiles 分页查询餐厅
func (r *GormRestaurantRepository) ListProfiles(filter RestaurantListFilter) ([]models.RestaurantProfile, int64, error) {
	query := r.db.Model(&models.RestaurantProfile{})
	if filter.Cuisine != "" {
		query = query.Where("cuisine = ?", filter.Cuisine)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.OnlyOpen {
		query = query.Where("is_open = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var profiles []models.RestaurantProfile
	if err := query.Order("rating desc, id asc").Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// UpdateProfile 更新餐厅档案
func (r *GormRestaurantRepository) UpdateProfile(profile *models.RestaurantProfile) error {
	return r.db.Save(profile).Error
}

// CreateMenuItem 创建菜单项
func (r *GormRestaurantRepository) CreateMenuItem(item *models.MenuItem) error {
	return r.db.Create(item).Error
}

// GetMenuItemByID 根据 ID 获取菜单项
func (r *GormRestaurantRepository) GetMenuItemByID(id uint) (*models.MenuItem, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.MenuItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetMenuItemsByIDs 批量获取指定餐厅下的菜单项
func (r *GormRestaurantRepository) GetMenuItemsByIDs(restaurantID uint, ids []uint) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}
	var items []models.MenuItem
	if err := r.db.Where("restaurant_id = ? AND id IN ?", restaurantID, ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListMenuItems 查询餐厅菜单
func (r *GormRestaurantRepository) ListMenuItems(restaurantID uint, onlyAvailable bool) ([]models.MenuItem, error) {
	query := r.db.Where("restaurant_id = ?", restaurantID)
	if onlyAvailable {
		query = query.Where("available = ?", true)
	}
	var items []models.MenuItem
	if err := query.Order("sort_order asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateMenuItem 更新菜单项
func (r *GormRestaurantRepository) UpdateMenuItem(item *models.MenuItem) error {
	return r.db.Save(item).Error
}

// DeleteMenuItem 删除菜单项
func (r *GormRestaurantRepository) DeleteMenuItem(id uint) error {
	return r.db.Delete(&models.MenuItem{}, id).Error
}
