package service

import (
	"sync"
	"time"

	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryProofService 送达凭证服务
// 凭证在订单确认送达时一次性铸发，之后不可变更，可公开校验。
type DeliveryProofService struct {
	proofRepo repository.DeliveryProofRepository

	mu                sync.RWMutex
	authorizedCallers map[string]bool
}

// NewDeliveryProofService 创建送达凭证服务
func NewDeliveryProofService(proofRepo repository.DeliveryProofRepository) *DeliveryProofService {
	return &DeliveryProofService{
		proofRepo:         proofRepo,
		authorizedCallers: make(map[string]bool),
	}
}

// SetAuthorizedCaller 登记授权调用方，仅在装配阶段调用
func (s *DeliveryProofService) SetAuthorizedCaller(caller string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizedCallers[caller] = true
}

func (s *DeliveryProofService) authorize(caller string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authorizedCallers[caller] {
		return ErrNotAuthorized
	}
	return nil
}

// MintInput 铸发输入
type MintInput struct {
	Order       *models.Order
	CodeHash    string
	DeliveredAt time.Time
	OnTime      bool
}

// Mint 在事务内为订单铸发送达凭证
// 同一订单重复铸发返回 ErrProofAlreadyExists。
func (s *DeliveryProofService) Mint(tx *gorm.DB, caller string, input MintInput) (*models.DeliveryProof, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	order := input.Order
	if order == nil || order.ID == 0 || order.DriverID == nil {
		return nil, ErrOrderNotFound
	}
	repo := s.proofRepo.WithTx(tx)

	existing, err := repo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProofAlreadyExists
	}

	tokenNo, err := repo.NextTokenNo()
	if err != nil {
		return nil, err
	}

	proof := &models.DeliveryProof{
		ProofNo:      uuid.NewString(),
		TokenNo:      tokenNo,
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		DriverID:     *order.DriverID,
		CodeHash:     input.CodeHash,
		Amount:       order.TotalAmount,
		DeliveredAt:  input.DeliveredAt,
		OnTime:       input.OnTime,
		MetadataJSON: models.JSON{
			"order_no":         order.OrderNo,
			"delivery_address": order.DeliveryAddress,
		},
	}
	if err := repo.Create(proof); err != nil {
		return nil, err
	}
	return proof, nil
}

// GetByOrderID 查询订单送达凭证
func (s *DeliveryProofService) GetByOrderID(orderID uint) (*models.DeliveryProof, error) {
	proof, err := s.proofRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, ErrProofNotFound
	}
	return proof, nil
}

// Verify 公开校验凭证：凭证存在且收货码与留存哈希一致
func (s *DeliveryProofService) Verify(proofNo, code string) (*models.DeliveryProof, bool, error) {
	proof, err := s.proofRepo.GetByProofNo(proofNo)
	if err != nil {
		return nil, false, err
	}
	if proof == nil {
		return nil, false, ErrProofNotFound
	}
	return proof, matchDeliveryCode(code, proof.CodeHash), nil
}

// List 分页查询凭证
func (s *DeliveryProofService) List(filter repository.DeliveryProofListFilter) ([]models.DeliveryProof, int64, error) {
	return s.proofRepo.List(filter)
}
