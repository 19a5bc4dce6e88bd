package service

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/queue"
	"github.com/forknet/forknet/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderServiceTestEnv struct {
	db         *gorm.DB
	svc        *OrderService
	walletSvc  *WalletService
	escrowSvc  *EscrowService
	proofSvc   *DeliveryProofService
	platformID uint
}

func setupOrderServiceTest(t *testing.T) *orderServiceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.RestaurantProfile{},
		&models.MenuItem{},
		&models.DriverProfile{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStateChange{},
		&models.EscrowAccount{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
		&models.ReputationRecord{},
		&models.ReputationEvent{},
		&models.DeliveryProof{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Order:  config.OrderConfig{TaxRatePercent: 9},
		Escrow: config.EscrowConfig{RestaurantSharePercent: 80, DriverSharePercent: 15, PlatformSharePercent: 5},
		Delivery: config.DeliveryConfig{
			CodeLength:     6,
			TimeoutMinutes: 90,
		},
	}

	accountRepo := repository.NewAccountRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	escrowRepo := repository.NewEscrowRepository(db)
	proofRepo := repository.NewDeliveryProofRepository(db)
	reputationRepo := repository.NewReputationRepository(db)

	walletSvc := NewWalletService(walletRepo)
	escrowSvc := NewEscrowService(cfg, escrowRepo, walletSvc)
	proofSvc := NewDeliveryProofService(proofRepo)
	reputationSvc := NewReputationService(reputationRepo)
	escrowSvc.SetAuthorizedCaller(CallerOrderOrchestrator)
	proofSvc.SetAuthorizedCaller(CallerOrderOrchestrator)
	reputationSvc.SetAuthorizedCaller(CallerOrderOrchestrator)

	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	platform := createOrderTestAccount(t, db, "platform@forknet.local", constants.RoleAdmin)
	escrowSvc.SetPlatformAccount(platform.ID)

	svc := NewOrderService(cfg, orderRepo, accountRepo, restaurantRepo, driverRepo,
		escrowSvc, proofSvc, reputationSvc, queueClient)
	return &orderServiceTestEnv{
		db:         db,
		svc:        svc,
		walletSvc:  walletSvc,
		escrowSvc:  escrowSvc,
		proofSvc:   proofSvc,
		platformID: platform.ID,
	}
}

var testAddressSeq uint64

func createOrderTestAccount(t *testing.T, db *gorm.DB, email, role string) *models.Account {
	t.Helper()
	account := &models.Account{
		Address:      fmt.Sprintf("0x%040d", atomic.AddUint64(&testAddressSeq, 1)),
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		Status:       "active",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	return account
}

func createOrderTestRestaurant(t *testing.T, db *gorm.DB, email string) (*models.Account, *models.RestaurantProfile, []models.MenuItem) {
	t.Helper()
	account := createOrderTestAccount(t, db, email, constants.RoleRestaurant)
	profile := &models.RestaurantProfile{
		AccountID:   account.ID,
		Name:        "测试餐厅",
		Cuisine:     "burger",
		DeliveryFee: mustMoney(t, "2.99"),
		IsOpen:      true,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create restaurant profile failed: %v", err)
	}
	items := []models.MenuItem{
		{RestaurantID: profile.ID, Name: "双层牛肉堡", Price: mustMoney(t, "12.99"), Available: true},
		{RestaurantID: profile.ID, Name: "松露薯条", Price: mustMoney(t, "6.99"), Available: true},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("create menu item failed: %v", err)
		}
	}
	return account, profile, items
}

func createOrderTestDriver(t *testing.T, db *gorm.DB, email string) (*models.Account, *models.DriverProfile) {
	t.Helper()
	account := createOrderTestAccount(t, db, email, constants.RoleDriver)
	profile := &models.DriverProfile{
		AccountID: account.ID,
		Vehicle:   "electric bike",
		Available: true,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create driver profile failed: %v", err)
	}
	return account, profile
}

func fundWallet(t *testing.T, env *orderServiceTestEnv, accountID uint, amount string) {
	t.Helper()
	if _, err := env.walletSvc.Deposit(accountID, mustMoney(t, amount), "测试充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
}

func mustMoney(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(s)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", s, err)
	}
	return m
}

func walletBalance(t *testing.T, env *orderServiceTestEnv, accountID uint) decimal.Decimal {
	t.Helper()
	account, err := env.walletSvc.GetAccount(accountID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	return account.Balance.Decimal
}

func placeTestOrder(t *testing.T, env *orderServiceTestEnv, customerID, restaurantID uint, items []models.MenuItem) *models.Order {
	t.Helper()
	order, err := env.svc.CreateOrder(CreateOrderInput{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Items: []CreateOrderItemInput{
			{MenuItemID: items[0].ID, Quantity: 1},
			{MenuItemID: items[1].ID, Quantity: 1},
		},
		DeliveryAddress: "幸福路 1 号",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

// advanceToOutForDelivery 推进订单到配送中，返回顾客可见的收货码
func advanceToOutForDelivery(t *testing.T, env *orderServiceTestEnv, orderID, restaurantAccountID, driverAccountID uint) string {
	t.Helper()
	if _, err := env.svc.MarkPreparing(orderID, restaurantAccountID); err != nil {
		t.Fatalf("mark preparing failed: %v", err)
	}
	if _, err := env.svc.MarkReady(orderID, restaurantAccountID); err != nil {
		t.Fatalf("mark ready failed: %v", err)
	}
	if _, err := env.svc.AssignDriver(orderID, driverAccountID); err != nil {
		t.Fatalf("assign driver failed: %v", err)
	}
	order, err := env.svc.StartDelivery(orderID, driverAccountID)
	if err != nil {
		t.Fatalf("start delivery failed: %v", err)
	}
	if order.Status != constants.OrderStatusOutForDelivery {
		t.Fatalf("expected out_for_delivery, got %s", order.Status)
	}
	code, err := env.svc.GetDeliveryCode(orderID, order.CustomerID)
	if err != nil {
		t.Fatalf("get delivery code failed: %v", err)
	}
	return code
}

func TestOrderServiceCreateOrderLocksEscrow(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	_, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)

	if order.Status != constants.OrderStatusEscrowed {
		t.Fatalf("expected escrowed, got %s", order.Status)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("19.98")) {
		t.Fatalf("unexpected subtotal: %s", order.Subtotal)
	}
	if !order.Tax.Equal(decimal.RequireFromString("1.80")) {
		t.Fatalf("unexpected tax: %s", order.Tax)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("24.77")) {
		t.Fatalf("unexpected total: %s", order.TotalAmount)
	}

	escrow, err := env.escrowSvc.GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("get escrow failed: %v", err)
	}
	if !escrow.Amount.Equal(order.TotalAmount.Decimal) {
		t.Fatalf("escrow amount mismatch: %s", escrow.Amount)
	}
	if escrow.Released || escrow.Refunded {
		t.Fatalf("escrow should be pending: %+v", escrow)
	}

	if balance := walletBalance(t, env, customer.ID); !balance.Equal(decimal.RequireFromString("75.23")) {
		t.Fatalf("unexpected customer balance: %s", balance)
	}

	history, err := env.svc.StateHistory(order.ID, customer.ID, constants.RoleCustomer)
	if err != nil {
		t.Fatalf("state history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 state changes, got %d", len(history))
	}
	if history[0].ToStatus != constants.OrderStatusCreated || history[1].ToStatus != constants.OrderStatusEscrowed {
		t.Fatalf("unexpected state history: %+v", history)
	}
}

func TestOrderServiceCreateOrderInsufficientFunds(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "poor@example.com", constants.RoleCustomer)
	_, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	fundWallet(t, env, customer.ID, "10.00")

	_, err := env.svc.CreateOrder(CreateOrderInput{
		CustomerID:   customer.ID,
		RestaurantID: profile.ID,
		Items: []CreateOrderItemInput{
			{MenuItemID: items[0].ID, Quantity: 1},
			{MenuItemID: items[1].ID, Quantity: 1},
		},
		DeliveryAddress: "幸福路 1 号",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected rollback to leave no order rows, got %d", orderCount)
	}
	if balance := walletBalance(t, env, customer.ID); !balance.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("balance should be untouched, got %s", balance)
	}
}

func TestOrderServiceCreateOrderValidation(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	if _, err := env.svc.CreateOrder(CreateOrderInput{
		CustomerID:      customer.ID,
		RestaurantID:    profile.ID,
		DeliveryAddress: "幸福路 1 号",
	}); !errors.Is(err, ErrOrderEmptyItems) {
		t.Fatalf("expected ErrOrderEmptyItems, got %v", err)
	}

	if err := env.db.Model(&models.MenuItem{}).Where("id = ?", items[0].ID).Update("available", false).Error; err != nil {
		t.Fatalf("update menu item failed: %v", err)
	}
	if _, err := env.svc.CreateOrder(CreateOrderInput{
		CustomerID:   customer.ID,
		RestaurantID: profile.ID,
		Items: []CreateOrderItemInput{
			{MenuItemID: items[0].ID, Quantity: 1},
		},
		DeliveryAddress: "幸福路 1 号",
	}); !errors.Is(err, ErrMenuItemUnavailable) {
		t.Fatalf("expected ErrMenuItemUnavailable, got %v", err)
	}

	if err := env.db.Model(&models.RestaurantProfile{}).Where("id = ?", profile.ID).Update("is_open", false).Error; err != nil {
		t.Fatalf("close restaurant failed: %v", err)
	}
	if _, err := env.svc.CreateOrder(CreateOrderInput{
		CustomerID:   customer.ID,
		RestaurantID: profile.ID,
		Items: []CreateOrderItemInput{
			{MenuItemID: items[1].ID, Quantity: 1},
		},
		DeliveryAddress: "幸福路 1 号",
	}); !errors.Is(err, ErrRestaurantInactive) {
		t.Fatalf("expected ErrRestaurantInactive, got %v", err)
	}

	// 营业中但餐厅账户被停用时同样拒单
	if err := env.db.Model(&models.RestaurantProfile{}).Where("id = ?", profile.ID).Update("is_open", true).Error; err != nil {
		t.Fatalf("reopen restaurant failed: %v", err)
	}
	if err := env.db.Model(&models.Account{}).Where("id = ?", restaurantAccount.ID).Update("status", "suspended").Error; err != nil {
		t.Fatalf("suspend restaurant account failed: %v", err)
	}
	if _, err := env.svc.CreateOrder(CreateOrderInput{
		CustomerID:   customer.ID,
		RestaurantID: profile.ID,
		Items: []CreateOrderItemInput{
			{MenuItemID: items[1].ID, Quantity: 1},
		},
		DeliveryAddress: "幸福路 1 号",
	}); !errors.Is(err, ErrRestaurantInactive) {
		t.Fatalf("expected ErrRestaurantInactive for suspended account, got %v", err)
	}
}

func TestOrderServiceLifecycleSettlement(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	driverAccount, _ := createOrderTestDriver(t, env.db, "dave@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	code := advanceToOutForDelivery(t, env, order.ID, restaurantAccount.ID, driverAccount.ID)
	if len(code) != 6 {
		t.Fatalf("unexpected delivery code: %q", code)
	}

	settled, err := env.svc.ConfirmDelivery(ConfirmDeliveryInput{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Code:       code,
		Rating:     5,
	})
	if err != nil {
		t.Fatalf("confirm delivery failed: %v", err)
	}
	if settled.Status != constants.OrderStatusSettled {
		t.Fatalf("expected settled, got %s", settled.Status)
	}
	if settled.DeliveryCode != "" {
		t.Fatalf("delivery code plaintext should be cleared after settlement")
	}

	// 24.77 按 80/15/5 分账，四舍五入余差并入平台
	if balance := walletBalance(t, env, restaurantAccount.ID); !balance.Equal(decimal.RequireFromString("19.82")) {
		t.Fatalf("unexpected restaurant payout: %s", balance)
	}
	if balance := walletBalance(t, env, driverAccount.ID); !balance.Equal(decimal.RequireFromString("3.72")) {
		t.Fatalf("unexpected driver payout: %s", balance)
	}
	if balance := walletBalance(t, env, env.platformID); !balance.Equal(decimal.RequireFromString("1.23")) {
		t.Fatalf("unexpected platform payout: %s", balance)
	}

	escrow, err := env.escrowSvc.GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("get escrow failed: %v", err)
	}
	if !escrow.Released || escrow.Refunded {
		t.Fatalf("escrow should be released: %+v", escrow)
	}

	proof, err := env.proofSvc.GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("get proof failed: %v", err)
	}
	if proof.DriverID != driverAccount.ID || !proof.OnTime {
		t.Fatalf("unexpected proof: %+v", proof)
	}
	if matched := matchDeliveryCode(code, proof.CodeHash); !matched {
		t.Fatalf("proof code hash should verify against the delivery code")
	}

	var driverRecord models.ReputationRecord
	if err := env.db.Where("account_id = ?", driverAccount.ID).First(&driverRecord).Error; err != nil {
		t.Fatalf("load driver reputation failed: %v", err)
	}
	if driverRecord.Score != 70 {
		t.Fatalf("expected driver score 70, got %d", driverRecord.Score)
	}
	var restaurantRecord models.ReputationRecord
	if err := env.db.Where("account_id = ?", restaurantAccount.ID).First(&restaurantRecord).Error; err != nil {
		t.Fatalf("load restaurant reputation failed: %v", err)
	}
	if restaurantRecord.Score != 100 {
		t.Fatalf("expected restaurant score 100, got %d", restaurantRecord.Score)
	}

	var restProfile models.RestaurantProfile
	if err := env.db.First(&restProfile, profile.ID).Error; err != nil {
		t.Fatalf("load restaurant profile failed: %v", err)
	}
	if restProfile.RatingCount != 1 || restProfile.Rating != 5 {
		t.Fatalf("unexpected restaurant rating: %+v", restProfile)
	}

	var driverProfile models.DriverProfile
	if err := env.db.Where("account_id = ?", driverAccount.ID).First(&driverProfile).Error; err != nil {
		t.Fatalf("load driver profile failed: %v", err)
	}
	if driverProfile.ActiveOrderID != nil || driverProfile.CompletedCount != 1 || driverProfile.OnTimeCount != 1 {
		t.Fatalf("unexpected driver bookkeeping: %+v", driverProfile)
	}

	// 结算后订单进入终态，重复确认被拒绝
	if _, err := env.svc.ConfirmDelivery(ConfirmDeliveryInput{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Code:       code,
	}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double confirm, got %v", err)
	}
}

func TestOrderServiceConfirmDeliveryWrongCode(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	driverAccount, _ := createOrderTestDriver(t, env.db, "dave@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	code := advanceToOutForDelivery(t, env, order.ID, restaurantAccount.ID, driverAccount.ID)

	wrong := "AAAAAA"
	if wrong == code {
		wrong = "BBBBBB"
	}
	if _, err := env.svc.ConfirmDelivery(ConfirmDeliveryInput{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Code:       wrong,
	}); !errors.Is(err, ErrInvalidDeliveryCode) {
		t.Fatalf("expected ErrInvalidDeliveryCode, got %v", err)
	}

	current, err := env.svc.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusOutForDelivery {
		t.Fatalf("wrong code must not change order status, got %s", current.Status)
	}
	escrow, err := env.escrowSvc.GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("get escrow failed: %v", err)
	}
	if escrow.Released || escrow.Refunded {
		t.Fatalf("escrow must stay pending after wrong code: %+v", escrow)
	}

	// 正确的码仍然可以结算
	if _, err := env.svc.ConfirmDelivery(ConfirmDeliveryInput{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Code:       code,
	}); err != nil {
		t.Fatalf("confirm with correct code failed: %v", err)
	}
}

func TestOrderServiceCancelRefundsEscrow(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	_, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	cancelled, err := env.svc.CancelOrder(order.ID, customer.ID, constants.RoleCustomer, "不想要了")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if balance := walletBalance(t, env, customer.ID); !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("escrow refund should restore balance, got %s", balance)
	}
	escrow, err := env.escrowSvc.GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("get escrow failed: %v", err)
	}
	if !escrow.Refunded || escrow.Released {
		t.Fatalf("escrow should be refunded: %+v", escrow)
	}
}

func TestOrderServiceCancelAfterPreparingRefunds(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	if _, err := env.svc.MarkPreparing(order.ID, restaurantAccount.ID); err != nil {
		t.Fatalf("mark preparing failed: %v", err)
	}

	cancelled, err := env.svc.CancelOrder(order.ID, customer.ID, constants.RoleCustomer, "不等了")
	if err != nil {
		t.Fatalf("cancel after preparing failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if balance := walletBalance(t, env, customer.ID); !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("escrow refund should restore balance, got %s", balance)
	}
	escrow, err := env.escrowSvc.GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("get escrow failed: %v", err)
	}
	if !escrow.Refunded || escrow.Released {
		t.Fatalf("escrow should be refunded: %+v", escrow)
	}
}

func TestOrderServiceCancelAfterReadyRejected(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	if _, err := env.svc.MarkPreparing(order.ID, restaurantAccount.ID); err != nil {
		t.Fatalf("mark preparing failed: %v", err)
	}
	if _, err := env.svc.MarkReady(order.ID, restaurantAccount.ID); err != nil {
		t.Fatalf("mark ready failed: %v", err)
	}
	if _, err := env.svc.CancelOrder(order.ID, customer.ID, constants.RoleCustomer, "晚了"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestOrderServiceRestaurantCancel(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	otherAccount, _, _ := createOrderTestRestaurant(t, env.db, "pizza@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)

	// 非本店餐厅无权取消
	if _, err := env.svc.CancelOrder(order.ID, otherAccount.ID, constants.RoleRestaurant, "缺货"); !errors.Is(err, ErrOrderAccessDenied) {
		t.Fatalf("expected ErrOrderAccessDenied, got %v", err)
	}

	cancelled, err := env.svc.CancelOrder(order.ID, restaurantAccount.ID, constants.RoleRestaurant, "缺货")
	if err != nil {
		t.Fatalf("restaurant cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if balance := walletBalance(t, env, customer.ID); !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("escrow refund should restore balance, got %s", balance)
	}
}

func TestOrderServiceAssignDriverGuards(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	driverAccount, driverProfile := createOrderTestDriver(t, env.db, "dave@example.com")
	fundWallet(t, env, customer.ID, "200.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)

	// 出餐前不可接单
	if _, err := env.svc.AssignDriver(order.ID, driverAccount.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before ready, got %v", err)
	}

	if _, err := env.svc.MarkPreparing(order.ID, restaurantAccount.ID); err != nil {
		t.Fatalf("mark preparing failed: %v", err)
	}
	if _, err := env.svc.MarkReady(order.ID, restaurantAccount.ID); err != nil {
		t.Fatalf("mark ready failed: %v", err)
	}

	busyOrderID := order.ID + 1000
	if err := env.db.Model(&models.DriverProfile{}).Where("id = ?", driverProfile.ID).
		Update("active_order_id", busyOrderID).Error; err != nil {
		t.Fatalf("mark driver busy failed: %v", err)
	}
	if _, err := env.svc.AssignDriver(order.ID, driverAccount.ID); !errors.Is(err, ErrDriverBusy) {
		t.Fatalf("expected ErrDriverBusy, got %v", err)
	}

	if err := env.db.Model(&models.DriverProfile{}).Where("id = ?", driverProfile.ID).
		Updates(map[string]interface{}{"active_order_id": nil, "available": false}).Error; err != nil {
		t.Fatalf("set driver offline failed: %v", err)
	}
	if _, err := env.svc.AssignDriver(order.ID, driverAccount.ID); !errors.Is(err, ErrDriverInactive) {
		t.Fatalf("expected ErrDriverInactive, got %v", err)
	}

	if err := env.db.Model(&models.DriverProfile{}).Where("id = ?", driverProfile.ID).
		Update("available", true).Error; err != nil {
		t.Fatalf("set driver online failed: %v", err)
	}
	assigned, err := env.svc.AssignDriver(order.ID, driverAccount.ID)
	if err != nil {
		t.Fatalf("assign driver failed: %v", err)
	}
	if assigned.Status != constants.OrderStatusAssignedDriver {
		t.Fatalf("expected assigned_driver, got %s", assigned.Status)
	}
	if assigned.DriverID == nil || *assigned.DriverID != driverAccount.ID {
		t.Fatalf("driver id not recorded: %+v", assigned.DriverID)
	}
}

func TestOrderServiceDeliveryTimeoutRefund(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	driverAccount, _ := createOrderTestDriver(t, env.db, "dave@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	advanceToOutForDelivery(t, env, order.ID, restaurantAccount.ID, driverAccount.ID)

	// 截止时间未到，不触发退款
	if _, err := env.svc.RefundTimedOut(order.ID); !errors.Is(err, ErrDeliveryNotTimedOut) {
		t.Fatalf("expected ErrDeliveryNotTimedOut, got %v", err)
	}

	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_deadline", past).Error; err != nil {
		t.Fatalf("backdate deadline failed: %v", err)
	}

	refunded, err := env.svc.RefundTimedOut(order.ID)
	if err != nil {
		t.Fatalf("refund timed out failed: %v", err)
	}
	if refunded.Status != constants.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %s", refunded.Status)
	}
	if balance := walletBalance(t, env, customer.ID); !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("timeout refund should restore balance, got %s", balance)
	}

	var driverProfile models.DriverProfile
	if err := env.db.Where("account_id = ?", driverAccount.ID).First(&driverProfile).Error; err != nil {
		t.Fatalf("load driver profile failed: %v", err)
	}
	if driverProfile.ActiveOrderID != nil {
		t.Fatalf("driver should be released after timeout refund")
	}

	// 已退款订单再次触发直接拒绝
	if _, err := env.svc.RefundTimedOut(order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second refund, got %v", err)
	}
}

func TestOrderServiceSweepTimedOut(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	driverAccount, _ := createOrderTestDriver(t, env.db, "dave@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)
	advanceToOutForDelivery(t, env, order.ID, restaurantAccount.ID, driverAccount.ID)

	count, err := env.svc.SweepTimedOut(10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 refunds before deadline, got %d", count)
	}

	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("delivery_deadline", past).Error; err != nil {
		t.Fatalf("backdate deadline failed: %v", err)
	}
	count, err = env.svc.SweepTimedOut(10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 refund, got %d", count)
	}
	current, err := env.svc.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusRefunded {
		t.Fatalf("expected refunded after sweep, got %s", current.Status)
	}
}

func TestOrderServiceDeliveryCodeVisibility(t *testing.T) {
	env := setupOrderServiceTest(t)
	customer := createOrderTestAccount(t, env.db, "alice@example.com", constants.RoleCustomer)
	stranger := createOrderTestAccount(t, env.db, "mallory@example.com", constants.RoleCustomer)
	restaurantAccount, profile, items := createOrderTestRestaurant(t, env.db, "burger@example.com")
	driverAccount, _ := createOrderTestDriver(t, env.db, "dave@example.com")
	fundWallet(t, env, customer.ID, "100.00")

	order := placeTestOrder(t, env, customer.ID, profile.ID, items)

	// 指派骑手前没有收货码
	if _, err := env.svc.GetDeliveryCode(order.ID, customer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before assignment, got %v", err)
	}

	code := advanceToOutForDelivery(t, env, order.ID, restaurantAccount.ID, driverAccount.ID)
	for _, ch := range code {
		if !strings.ContainsRune(deliveryCodeAlphabet, ch) {
			t.Fatalf("delivery code %q contains char outside alphabet", code)
		}
	}

	if _, err := env.svc.GetDeliveryCode(order.ID, stranger.ID); !errors.Is(err, ErrOrderAccessDenied) {
		t.Fatalf("expected ErrOrderAccessDenied for other customer, got %v", err)
	}

	if _, err := env.svc.ConfirmDelivery(ConfirmDeliveryInput{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		Code:       code,
	}); err != nil {
		t.Fatalf("confirm delivery failed: %v", err)
	}
	if _, err := env.svc.GetDeliveryCode(order.ID, customer.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after settlement, got %v", err)
	}
}
