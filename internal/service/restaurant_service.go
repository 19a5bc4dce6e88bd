package service

import (
	"strings"

	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"
)

// RestaurantService 餐厅目录与菜单服务
type RestaurantService struct {
	restaurantRepo repository.RestaurantRepository
}

// NewRestaurantService 创建餐厅服务
func NewRestaurantService(restaurantRepo repository.RestaurantRepository) *RestaurantService {
	return &RestaurantService{restaurantRepo: restaurantRepo}
}

// MenuItemInput 菜单项输入
type MenuItemInput struct {
	Name        string
	Description string
	Price       models.Money
	ImageURL    string
	Tags        []string
	Available   *bool
	SortOrder   *int
}

// RestaurantProfileInput 餐厅档案更新输入
type RestaurantProfileInput struct {
	Name        *string
	Description *string
	Cuisine     *string
	Address     *string
	ImageURL    *string
	DeliveryFee *models.Money
	IsOpen      *bool
}

// ListRestaurants 公开分页查询餐厅目录
func (s *RestaurantService) ListRestaurants(filter repository.RestaurantListFilter) ([]models.RestaurantProfile, int64, error) {
	return s.restaurantRepo.ListProfiles(filter)
}

// GetRestaurant 查询餐厅详情（含可售菜单）
func (s *RestaurantService) GetRestaurant(id uint) (*models.RestaurantProfile, error) {
	profile, err := s.restaurantRepo.GetProfileByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	items, err := s.restaurantRepo.ListMenuItems(profile.ID, true)
	if err != nil {
		return nil, err
	}
	profile.MenuItems = items
	return profile, nil
}

// GetProfileByAccountID 查询账户对应的餐厅档案
func (s *RestaurantService) GetProfileByAccountID(accountID uint) (*models.RestaurantProfile, error) {
	profile, err := s.restaurantRepo.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// UpdateProfile 餐厅自助更新档案
func (s *RestaurantService) UpdateProfile(accountID uint, input RestaurantProfileInput) (*models.RestaurantProfile, error) {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			profile.Name = name
		}
	}
	if input.Description != nil {
		profile.Description = strings.TrimSpace(*input.Description)
	}
	if input.Cuisine != nil {
		profile.Cuisine = strings.TrimSpace(*input.Cuisine)
	}
	if input.Address != nil {
		profile.Address = strings.TrimSpace(*input.Address)
	}
	if input.ImageURL != nil {
		profile.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.DeliveryFee != nil {
		if input.DeliveryFee.IsNegative() {
			return nil, ErrInvalidAmount
		}
		profile.DeliveryFee = *input.DeliveryFee
	}
	if input.IsOpen != nil {
		profile.IsOpen = *input.IsOpen
	}
	if err := s.restaurantRepo.UpdateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListMenu 查询餐厅菜单（经营方视角，含下架项）
func (s *RestaurantService) ListMenu(accountID uint) ([]models.MenuItem, error) {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	return s.restaurantRepo.ListMenuItems(profile.ID, false)
}

// CreateMenuItem 新增菜单项
func (s *RestaurantService) CreateMenuItem(accountID uint, input MenuItemInput) (*models.MenuItem, error) {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMenuItemNotFound
	}
	if !input.Price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	item := &models.MenuItem{
		RestaurantID: profile.ID,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price,
		ImageURL:     strings.TrimSpace(input.ImageURL),
		Tags:         input.Tags,
		Available:    true,
	}
	if input.Available != nil {
		item.Available = *input.Available
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}
	if err := s.restaurantRepo.CreateMenuItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateMenuItem 更新菜单项（仅限本餐厅）
func (s *RestaurantService) UpdateMenuItem(accountID, itemID uint, input MenuItemInput) (*models.MenuItem, error) {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	item, err := s.restaurantRepo.GetMenuItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.RestaurantID != profile.ID {
		return nil, ErrMenuItemNotFound
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		item.Name = name
	}
	if input.Description != "" {
		item.Description = strings.TrimSpace(input.Description)
	}
	if input.Price.IsPositive() {
		item.Price = input.Price
	}
	if input.ImageURL != "" {
		item.ImageURL = strings.TrimSpace(input.ImageURL)
	}
	if input.Tags != nil {
		item.Tags = input.Tags
	}
	if input.Available != nil {
		item.Available = *input.Available
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}
	if err := s.restaurantRepo.UpdateMenuItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMenuItem 删除菜单项（仅限本餐厅）
func (s *RestaurantService) DeleteMenuItem(accountID, itemID uint) error {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return err
	}
	item, err := s.restaurantRepo.GetMenuItemByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.RestaurantID != profile.ID {
		return ErrMenuItemNotFound
	}
	return s.restaurantRepo.DeleteMenuItem(itemID)
}
