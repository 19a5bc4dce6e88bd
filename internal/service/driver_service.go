package service

import (
	"strings"

	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"
)

// DriverService 骑手档案与接单状态服务
type DriverService struct {
	driverRepo repository.DriverRepository
}

// NewDriverService 创建骑手服务
func NewDriverService(driverRepo repository.DriverRepository) *DriverService {
	return &DriverService{driverRepo: driverRepo}
}

// GetProfileByAccountID 查询账户对应的骑手档案
func (s *DriverService) GetProfileByAccountID(accountID uint) (*models.DriverProfile, error) {
	profile, err := s.driverRepo.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// SetAvailability 骑手上线/下线
// 配送中不允许下线，避免在途订单失去承运人。
func (s *DriverService) SetAvailability(accountID uint, available bool) (*models.DriverProfile, error) {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if !available && profile.ActiveOrderID != nil {
		return nil, ErrDriverBusy
	}
	profile.Available = available
	if err := s.driverRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateVehicle 更新交通工具
func (s *DriverService) UpdateVehicle(accountID uint, vehicle string) (*models.DriverProfile, error) {
	profile, err := s.GetProfileByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	profile.Vehicle = strings.TrimSpace(vehicle)
	if err := s.driverRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListAvailable 查询当前可接单骑手
func (s *DriverService) ListAvailable() ([]models.DriverProfile, error) {
	return s.driverRepo.ListAvailable()
}
