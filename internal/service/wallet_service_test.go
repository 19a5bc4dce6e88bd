package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewWalletService(repository.NewWalletRepository(db)), db
}

func TestWalletServiceDeposit(t *testing.T) {
	svc, db := setupWalletServiceTest(t)

	account, err := svc.Deposit(1, mustMoney(t, "50.00"), "首充")
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected balance: %s", account.Balance)
	}

	account, err = svc.Deposit(1, mustMoney(t, "12.34"), "二充")
	if err != nil {
		t.Fatalf("second deposit failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("62.34")) {
		t.Fatalf("unexpected balance: %s", account.Balance)
	}

	var txns []models.WalletTransaction
	if err := db.Where("account_id = ?", 1).Order("id").Find(&txns).Error; err != nil {
		t.Fatalf("load transactions failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].Type != constants.WalletTxnTypeDeposit || txns[0].Direction != constants.WalletTxnDirectionIn {
		t.Fatalf("unexpected transaction: %+v", txns[0])
	}
	if !txns[1].BalanceAfter.Equal(decimal.RequireFromString("62.34")) {
		t.Fatalf("unexpected balance snapshot: %s", txns[1].BalanceAfter)
	}
}

func TestWalletServiceDepositRejectsNonPositive(t *testing.T) {
	svc, _ := setupWalletServiceTest(t)
	if _, err := svc.Deposit(1, mustMoney(t, "0"), "零充值"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Deposit(1, mustMoney(t, "-1.00"), "负充值"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Deposit(0, mustMoney(t, "1.00"), ""); !errors.Is(err, ErrWalletAccountNotFound) {
		t.Fatalf("expected ErrWalletAccountNotFound, got %v", err)
	}
}

func TestWalletServiceDebitInsufficientFunds(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	if _, err := svc.Deposit(1, mustMoney(t, "10.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Debit(tx, WalletEntryInput{
			AccountID: 1,
			Amount:    mustMoney(t, "10.01"),
			TxnType:   constants.WalletTxnTypeEscrowLock,
			Reference: "ESC-LOCK-T1",
		})
		return err
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	account, err := svc.GetAccount(1)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("balance should be untouched, got %s", account.Balance)
	}
}

func TestWalletServiceDuplicateReference(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	if _, err := svc.Deposit(1, mustMoney(t, "100.00"), "充值"); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	debit := func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Debit(tx, WalletEntryInput{
				AccountID: 1,
				Amount:    mustMoney(t, "20.00"),
				TxnType:   constants.WalletTxnTypeEscrowLock,
				Reference: "ESC-LOCK-42",
			})
			return err
		})
	}
	if err := debit(); err != nil {
		t.Fatalf("first debit failed: %v", err)
	}
	if err := debit(); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}

	account, err := svc.GetAccount(1)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("duplicate must not double debit, got %s", account.Balance)
	}
}

func TestWalletServiceCreditCreatesAccount(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	if err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Credit(tx, WalletEntryInput{
			AccountID: 7,
			Amount:    mustMoney(t, "3.72"),
			TxnType:   constants.WalletTxnTypeEscrowPayout,
			Reference: "ESC-PAY-D-7",
		})
		return err
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	account, err := svc.GetAccount(7)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("3.72")) {
		t.Fatalf("unexpected balance: %s", account.Balance)
	}
}
