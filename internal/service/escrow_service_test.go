package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupEscrowServiceTest(t *testing.T) (*EscrowService, *WalletService, *gorm.DB, *config.Config) {
	t.Helper()
	dsn := fmt.Sprintf("file:escrow_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.EscrowAccount{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Escrow: config.EscrowConfig{RestaurantSharePercent: 80, DriverSharePercent: 15, PlatformSharePercent: 5},
	}
	walletSvc := NewWalletService(repository.NewWalletRepository(db))
	escrowSvc := NewEscrowService(cfg, repository.NewEscrowRepository(db), walletSvc)
	escrowSvc.SetAuthorizedCaller(CallerOrderOrchestrator)
	escrowSvc.SetPlatformAccount(99)
	return escrowSvc, walletSvc, db, cfg
}

func createEscrowTestOrder(t *testing.T, db *gorm.DB, customerID uint, total string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:         fmt.Sprintf("FN-TEST-%d", time.Now().UnixNano()),
		CustomerID:      customerID,
		RestaurantID:    1,
		Status:          constants.OrderStatusCreated,
		TotalAmount:     mustMoney(t, total),
		DeliveryAddress: "幸福路 1 号",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func lockEscrow(t *testing.T, svc *EscrowService, db *gorm.DB, order *models.Order) *models.EscrowAccount {
	t.Helper()
	var escrow *models.EscrowAccount
	if err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		escrow, err = svc.Lock(tx, CallerOrderOrchestrator, order)
		return err
	}); err != nil {
		t.Fatalf("lock escrow failed: %v", err)
	}
	return escrow
}

func TestEscrowServiceRejectsUnknownCaller(t *testing.T) {
	svc, _, db, _ := setupEscrowServiceTest(t)
	order := createEscrowTestOrder(t, db, 1, "24.77")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Lock(tx, "some-handler", order)
		return err
	})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Refund(tx, "", order.ID, "test")
		return err
	})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestEscrowServiceLockDebitsCustomer(t *testing.T) {
	svc, walletSvc, db, _ := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "30.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	order := createEscrowTestOrder(t, db, 1, "24.77")

	escrow := lockEscrow(t, svc, db, order)
	if !escrow.Amount.Equal(decimal.RequireFromString("24.77")) {
		t.Fatalf("unexpected escrow amount: %s", escrow.Amount)
	}
	account, err := walletSvc.GetAccount(1)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("5.23")) {
		t.Fatalf("unexpected balance after lock: %s", account.Balance)
	}

	// 同一订单不可重复托管
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Lock(tx, CallerOrderOrchestrator, order)
		return err
	})
	if !errors.Is(err, ErrEscrowExists) {
		t.Fatalf("expected ErrEscrowExists, got %v", err)
	}
}

func TestEscrowServiceReleaseSplit(t *testing.T) {
	svc, walletSvc, db, _ := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "30.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	order := createEscrowTestOrder(t, db, 1, "24.77")
	lockEscrow(t, svc, db, order)

	var released *models.EscrowAccount
	if err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = svc.Release(tx, CallerOrderOrchestrator, EscrowReleaseInput{
			OrderID:             order.ID,
			RestaurantAccountID: 2,
			DriverAccountID:     3,
		})
		return err
	}); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if !released.RestaurantAmount.Equal(decimal.RequireFromString("19.82")) {
		t.Fatalf("unexpected restaurant share: %s", released.RestaurantAmount)
	}
	if !released.DriverAmount.Equal(decimal.RequireFromString("3.72")) {
		t.Fatalf("unexpected driver share: %s", released.DriverAmount)
	}
	if !released.PlatformAmount.Equal(decimal.RequireFromString("1.23")) {
		t.Fatalf("unexpected platform share: %s", released.PlatformAmount)
	}
	sum := released.RestaurantAmount.Add(released.DriverAmount.Decimal).Add(released.PlatformAmount.Decimal)
	if !sum.Equal(released.Amount.Decimal) {
		t.Fatalf("split must sum to escrow amount, got %s", sum)
	}

	for accountID, expect := range map[uint]string{2: "19.82", 3: "3.72", 99: "1.23"} {
		account, err := walletSvc.GetAccount(accountID)
		if err != nil {
			t.Fatalf("get wallet %d failed: %v", accountID, err)
		}
		if !account.Balance.Equal(decimal.RequireFromString(expect)) {
			t.Fatalf("account %d expected %s, got %s", accountID, expect, account.Balance)
		}
	}

	// 放款后退款与重复放款都被拒绝
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Refund(tx, CallerOrderOrchestrator, order.ID, "too late")
		return err
	})
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled on refund, got %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Release(tx, CallerOrderOrchestrator, EscrowReleaseInput{
			OrderID:             order.ID,
			RestaurantAccountID: 2,
			DriverAccountID:     3,
		})
		return err
	})
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled on double release, got %v", err)
	}
}

func TestEscrowServiceRefundRestoresCustomer(t *testing.T) {
	svc, walletSvc, db, _ := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "30.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	order := createEscrowTestOrder(t, db, 1, "24.77")
	lockEscrow(t, svc, db, order)

	var refunded *models.EscrowAccount
	if err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		refunded, err = svc.Refund(tx, CallerOrderOrchestrator, order.ID, "顾客取消")
		return err
	}); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !refunded.Refunded || refunded.Released {
		t.Fatalf("escrow should be refunded: %+v", refunded)
	}
	if refunded.RefundReason != "顾客取消" {
		t.Fatalf("unexpected refund reason: %s", refunded.RefundReason)
	}

	account, err := walletSvc.GetAccount(1)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("refund should restore full balance, got %s", account.Balance)
	}
}

func TestEscrowServiceSplitRemainderGoesToPlatform(t *testing.T) {
	svc, walletSvc, db, _ := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "20.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	order := createEscrowTestOrder(t, db, 1, "10.01")
	lockEscrow(t, svc, db, order)

	var released *models.EscrowAccount
	if err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = svc.Release(tx, CallerOrderOrchestrator, EscrowReleaseInput{
			OrderID:             order.ID,
			RestaurantAccountID: 2,
			DriverAccountID:     3,
		})
		return err
	}); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	// 8.008 -> 8.01, 1.5015 -> 1.50, 平台兜住余差 0.50
	if !released.RestaurantAmount.Equal(decimal.RequireFromString("8.01")) ||
		!released.DriverAmount.Equal(decimal.RequireFromString("1.50")) ||
		!released.PlatformAmount.Equal(decimal.RequireFromString("0.50")) {
		t.Fatalf("unexpected split: %s / %s / %s",
			released.RestaurantAmount, released.DriverAmount, released.PlatformAmount)
	}
	sum := released.RestaurantAmount.Add(released.DriverAmount.Decimal).Add(released.PlatformAmount.Decimal)
	if !sum.Equal(decimal.RequireFromString("10.01")) {
		t.Fatalf("split must sum exactly, got %s", sum)
	}
}

func TestEscrowServiceSplitFixedAtLock(t *testing.T) {
	svc, walletSvc, db, cfg := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "30.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	order := createEscrowTestOrder(t, db, 1, "24.77")

	escrow := lockEscrow(t, svc, db, order)
	if escrow.RestaurantShare != 80 || escrow.DriverShare != 15 || escrow.PlatformShare != 5 {
		t.Fatalf("lock should persist share percents, got %d/%d/%d",
			escrow.RestaurantShare, escrow.DriverShare, escrow.PlatformShare)
	}

	// 锁定后修改配置比例，放款仍按锁定时固定的比例分账
	cfg.Escrow = config.EscrowConfig{RestaurantSharePercent: 50, DriverSharePercent: 30, PlatformSharePercent: 20}

	var released *models.EscrowAccount
	if err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = svc.Release(tx, CallerOrderOrchestrator, EscrowReleaseInput{
			OrderID:             order.ID,
			RestaurantAccountID: 2,
			DriverAccountID:     3,
		})
		return err
	}); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if !released.RestaurantAmount.Equal(decimal.RequireFromString("19.82")) ||
		!released.DriverAmount.Equal(decimal.RequireFromString("3.72")) ||
		!released.PlatformAmount.Equal(decimal.RequireFromString("1.23")) {
		t.Fatalf("release must use locked split, got %s / %s / %s",
			released.RestaurantAmount, released.DriverAmount, released.PlatformAmount)
	}
}

func TestEscrowServiceLockRejectsInvalidSplit(t *testing.T) {
	svc, walletSvc, db, cfg := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "30.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	order := createEscrowTestOrder(t, db, 1, "24.77")

	cfg.Escrow = config.EscrowConfig{RestaurantSharePercent: 80, DriverSharePercent: 15, PlatformSharePercent: 10}
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Lock(tx, CallerOrderOrchestrator, order)
		return err
	})
	if !errors.Is(err, ErrInvalidSplit) {
		t.Fatalf("expected ErrInvalidSplit, got %v", err)
	}

	// 比例非法时不得动用顾客资金
	account, err := walletSvc.GetAccount(1)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("balance must be untouched, got %s", account.Balance)
	}
}

func TestEscrowServiceCountPending(t *testing.T) {
	svc, walletSvc, db, _ := setupEscrowServiceTest(t)
	if _, err := walletSvc.Deposit(1, mustMoney(t, "100.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	first := createEscrowTestOrder(t, db, 1, "10.00")
	second := createEscrowTestOrder(t, db, 1, "15.00")
	lockEscrow(t, svc, db, first)
	lockEscrow(t, svc, db, second)

	count, err := svc.CountPending()
	if err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pending escrows, got %d", count)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Refund(tx, CallerOrderOrchestrator, first.ID, "取消")
		return err
	}); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	count, err = svc.CountPending()
	if err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 pending escrow, got %d", count)
	}
}
