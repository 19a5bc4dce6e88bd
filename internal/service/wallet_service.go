package service

import (
	"fmt"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletService 钱包服务
// 余额只经由流水变更，Reference 唯一索引保证同一笔业务不会重复落账。
type WalletService struct {
	walletRepo repository.WalletRepository
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// WalletEntryInput 事务内记账输入
type WalletEntryInput struct {
	AccountID uint
	Amount    models.Money
	TxnType   string
	Reference string
	Remark    string
	OrderID   *uint
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(accountID uint) (*models.WalletAccount, error) {
	if accountID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	return s.getOrCreateAccount(accountID)
}

// Deposit 账户充值
func (s *WalletService) Deposit(accountID uint, amount models.Money, remark string) (*models.WalletAccount, error) {
	if accountID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.getOrCreateAccount(accountID); err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("DEP-%s", uuid.NewString())
	var result *models.WalletAccount
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		account, err := s.Credit(tx, WalletEntryInput{
			AccountID: accountID,
			Amount:    amount,
			TxnType:   constants.WalletTxnTypeDeposit,
			Reference: reference,
			Remark:    remark,
		})
		if err != nil {
			return err
		}
		result = account
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// Credit 事务内入账
// 必须在调用方开启的事务内执行，Reference 重复时返回 ErrDuplicateReference。
func (s *WalletService) Credit(tx *gorm.DB, input WalletEntryInput) (*models.WalletAccount, error) {
	return s.apply(tx, input, constants.WalletTxnDirectionIn)
}

// Debit 事务内出账，余额不足返回 ErrInsufficientFunds
func (s *WalletService) Debit(tx *gorm.DB, input WalletEntryInput) (*models.WalletAccount, error) {
	return s.apply(tx, input, constants.WalletTxnDirectionOut)
}

func (s *WalletService) apply(tx *gorm.DB, input WalletEntryInput, direction string) (*models.WalletAccount, error) {
	if input.AccountID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	repo := s.walletRepo.WithTx(tx)

	existing, err := repo.GetTransactionByReference(input.Reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateReference
	}

	account, err := repo.GetAccountByAccountIDForUpdate(input.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &models.WalletAccount{AccountID: input.AccountID}
		if err := repo.CreateAccount(account); err != nil {
			return nil, err
		}
	}

	if direction == constants.WalletTxnDirectionOut {
		if account.Balance.LessThan(input.Amount.Decimal) {
			return nil, ErrInsufficientFunds
		}
		account.Balance = models.NewMoneyFromDecimal(account.Balance.Sub(input.Amount.Decimal))
	} else {
		account.Balance = models.NewMoneyFromDecimal(account.Balance.Add(input.Amount.Decimal))
	}
	if err := repo.UpdateAccount(account); err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		WalletID:     account.ID,
		AccountID:    input.AccountID,
		OrderID:      input.OrderID,
		Type:         input.TxnType,
		Direction:    direction,
		Amount:       input.Amount,
		BalanceAfter: account.Balance,
		Reference:    input.Reference,
		Remark:       input.Remark,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *WalletService) getOrCreateAccount(accountID uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{AccountID: accountID}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}
