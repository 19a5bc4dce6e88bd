package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EscrowService 订单资金托管服务
// 只有被授权的调用方（订单编排器、后台任务）可以锁定、放款或退款，
// 放款与退款互斥，进入终态后托管金额不再变动。
type EscrowService struct {
	cfg        *config.Config
	escrowRepo repository.EscrowRepository
	walletSvc  *WalletService

	mu                sync.RWMutex
	authorizedCallers map[string]bool
	platformAccountID uint
}

// EscrowReleaseInput 放款输入
type EscrowReleaseInput struct {
	OrderID             uint
	RestaurantAccountID uint
	DriverAccountID     uint
}

// NewEscrowService 创建托管服务
func NewEscrowService(
	cfg *config.Config,
	escrowRepo repository.EscrowRepository,
	walletSvc *WalletService,
) *EscrowService {
	return &EscrowService{
		cfg:               cfg,
		escrowRepo:        escrowRepo,
		walletSvc:         walletSvc,
		authorizedCallers: make(map[string]bool),
	}
}

// SetAuthorizedCaller 登记授权调用方，仅在装配阶段调用
func (s *EscrowService) SetAuthorizedCaller(caller string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorizedCallers[caller] = true
	logger.Infow("escrow_authorized_caller_set", "caller", caller)
}

// SetPlatformAccount 登记平台分成入账账户
func (s *EscrowService) SetPlatformAccount(accountID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platformAccountID = accountID
}

func (s *EscrowService) authorize(caller string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authorizedCallers[caller] {
		return ErrNotAuthorized
	}
	return nil
}

// Lock 在事务内锁定顾客资金并创建托管账户
// 分账比例在锁定时校验并固定到托管账户，之后的配置变更不影响已锁定订单。
// 钱包余额不足时返回 ErrInsufficientFunds，订单已有托管时返回 ErrEscrowExists。
func (s *EscrowService) Lock(tx *gorm.DB, caller string, order *models.Order) (*models.EscrowAccount, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if order == nil || order.ID == 0 {
		return nil, ErrOrderNotFound
	}
	if !order.TotalAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	restaurantPct := s.cfg.Escrow.RestaurantSharePercent
	driverPct := s.cfg.Escrow.DriverSharePercent
	platformPct := s.cfg.Escrow.PlatformSharePercent
	if err := validateSplit(restaurantPct, driverPct, platformPct); err != nil {
		return nil, err
	}
	repo := s.escrowRepo.WithTx(tx)

	existing, err := repo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEscrowExists
	}

	orderID := order.ID
	if _, err := s.walletSvc.Debit(tx, WalletEntryInput{
		AccountID: order.CustomerID,
		Amount:    order.TotalAmount,
		TxnType:   constants.WalletTxnTypeEscrowLock,
		Reference: fmt.Sprintf("ESC-LOCK-%d", order.ID),
		Remark:    fmt.Sprintf("订单 %s 资金托管", order.OrderNo),
		OrderID:   &orderID,
	}); err != nil {
		return nil, err
	}

	escrow := &models.EscrowAccount{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Amount:          order.TotalAmount,
		RestaurantShare: restaurantPct,
		DriverShare:     driverPct,
		PlatformShare:   platformPct,
		LockedAt:        time.Now(),
	}
	if err := repo.Create(escrow); err != nil {
		return nil, err
	}
	return escrow, nil
}

// Release 在事务内按配置比例放款给餐厅、骑手与平台
// 分账三方合计必须等于托管总额，否则返回 ErrInvalidSplit。
func (s *EscrowService) Release(tx *gorm.DB, caller string, input EscrowReleaseInput) (*models.EscrowAccount, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	repo := s.escrowRepo.WithTx(tx)

	escrow, err := repo.GetByOrderIDForUpdate(input.OrderID)
	if err != nil {
		return nil, err
	}
	if escrow == nil {
		return nil, ErrEscrowNotFound
	}
	if escrow.Settled() {
		return nil, ErrAlreadySettled
	}

	restaurantAmount, driverAmount, platformAmount, err := splitAmounts(escrow)
	if err != nil {
		return nil, err
	}

	orderID := escrow.OrderID
	if _, err := s.walletSvc.Credit(tx, WalletEntryInput{
		AccountID: input.RestaurantAccountID,
		Amount:    restaurantAmount,
		TxnType:   constants.WalletTxnTypeEscrowPayout,
		Reference: fmt.Sprintf("ESC-PAY-R-%d", escrow.OrderID),
		Remark:    "订单结算餐厅分账",
		OrderID:   &orderID,
	}); err != nil {
		return nil, err
	}
	if _, err := s.walletSvc.Credit(tx, WalletEntryInput{
		AccountID: input.DriverAccountID,
		Amount:    driverAmount,
		TxnType:   constants.WalletTxnTypeEscrowPayout,
		Reference: fmt.Sprintf("ESC-PAY-D-%d", escrow.OrderID),
		Remark:    "订单结算骑手分账",
		OrderID:   &orderID,
	}); err != nil {
		return nil, err
	}
	if platformAmount.IsPositive() {
		s.mu.RLock()
		platformAccountID := s.platformAccountID
		s.mu.RUnlock()
		if platformAccountID == 0 {
			return nil, ErrInvalidSplit
		}
		if _, err := s.walletSvc.Credit(tx, WalletEntryInput{
			AccountID: platformAccountID,
			Amount:    platformAmount,
			TxnType:   constants.WalletTxnTypeEscrowPayout,
			Reference: fmt.Sprintf("ESC-PAY-P-%d", escrow.OrderID),
			Remark:    "订单结算平台分账",
			OrderID:   &orderID,
		}); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	escrow.RestaurantAmount = restaurantAmount
	escrow.DriverAmount = driverAmount
	escrow.PlatformAmount = platformAmount
	escrow.Released = true
	escrow.ReleasedAt = &now
	if err := repo.Update(escrow); err != nil {
		return nil, err
	}
	return escrow, nil
}

// Refund 在事务内将托管资金全额退回顾客钱包
func (s *EscrowService) Refund(tx *gorm.DB, caller string, orderID uint, reason string) (*models.EscrowAccount, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	repo := s.escrowRepo.WithTx(tx)

	escrow, err := repo.GetByOrderIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if escrow == nil {
		return nil, ErrEscrowNotFound
	}
	if escrow.Settled() {
		return nil, ErrAlreadySettled
	}

	oid := escrow.OrderID
	if _, err := s.walletSvc.Credit(tx, WalletEntryInput{
		AccountID: escrow.CustomerID,
		Amount:    escrow.Amount,
		TxnType:   constants.WalletTxnTypeEscrowRefund,
		Reference: fmt.Sprintf("ESC-RFD-%d", escrow.OrderID),
		Remark:    reason,
		OrderID:   &oid,
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	escrow.Refunded = true
	escrow.RefundedAt = &now
	escrow.RefundReason = reason
	if err := repo.Update(escrow); err != nil {
		return nil, err
	}
	return escrow, nil
}

// GetByOrderID 查询订单托管账户
func (s *EscrowService) GetByOrderID(orderID uint) (*models.EscrowAccount, error) {
	escrow, err := s.escrowRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if escrow == nil {
		return nil, ErrEscrowNotFound
	}
	return escrow, nil
}

// CountPending 统计未结算托管数量
func (s *EscrowService) CountPending() (int64, error) {
	return s.escrowRepo.CountPending()
}

// validateSplit 校验三方分成比例合计为 100
func validateSplit(restaurantPct, driverPct, platformPct int) error {
	if restaurantPct < 0 || driverPct < 0 || platformPct < 0 ||
		restaurantPct+driverPct+platformPct != 100 {
		return ErrInvalidSplit
	}
	return nil
}

// splitAmounts 按锁定时固定的比例拆分托管总额，余数并入平台分成避免分账漏差
func splitAmounts(escrow *models.EscrowAccount) (restaurant, driver, platform models.Money, err error) {
	if err = validateSplit(escrow.RestaurantShare, escrow.DriverShare, escrow.PlatformShare); err != nil {
		return restaurant, driver, platform, err
	}

	total := escrow.Amount
	hundred := decimal.NewFromInt(100)
	restaurant = models.NewMoneyFromDecimal(total.Mul(decimal.NewFromInt(int64(escrow.RestaurantShare))).Div(hundred))
	driver = models.NewMoneyFromDecimal(total.Mul(decimal.NewFromInt(int64(escrow.DriverShare))).Div(hundred))
	platform = models.NewMoneyFromDecimal(total.Sub(restaurant.Decimal).Sub(driver.Decimal))
	if platform.IsNegative() {
		return restaurant, driver, platform, ErrInvalidSplit
	}
	return restaurant, driver, platform, nil
}
