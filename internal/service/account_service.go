package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/forknet/forknet/internal/cache"
	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService 账户注册与认证服务
type AccountService struct {
	cfg            *config.Config
	accountRepo    repository.AccountRepository
	walletRepo     repository.WalletRepository
	restaurantRepo repository.RestaurantRepository
	driverRepo     repository.DriverRepository
	reputationRepo repository.ReputationRepository
}

// NewAccountService 创建账户服务
func NewAccountService(
	cfg *config.Config,
	accountRepo repository.AccountRepository,
	walletRepo repository.WalletRepository,
	restaurantRepo repository.RestaurantRepository,
	driverRepo repository.DriverRepository,
	reputationRepo repository.ReputationRepository,
) *AccountService {
	return &AccountService{
		cfg:            cfg,
		accountRepo:    accountRepo,
		walletRepo:     walletRepo,
		restaurantRepo: restaurantRepo,
		driverRepo:     driverRepo,
		reputationRepo: reputationRepo,
	}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string

	// 餐厅角色的经营信息
	RestaurantName string
	Cuisine        string
	Address        string
	DeliveryFee    models.Money

	// 骑手角色的接单信息
	Vehicle string
}

// AccountJWTClaims 账户 JWT 声明
type AccountJWTClaims struct {
	AccountID    uint   `json:"account_id"`
	Address      string `json:"address"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// Register 注册账户并初始化角色档案、钱包与信誉档案
func (s *AccountService) Register(input RegisterInput) (*models.Account, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := s.validatePassword(input.Password); err != nil {
		return nil, err
	}
	switch input.Role {
	case constants.RoleCustomer, constants.RoleRestaurant, constants.RoleDriver:
	default:
		return nil, ErrInvalidRole
	}

	existing, err := s.accountRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	address, err := generateAccountAddress()
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Address:      address,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		Status:       "active",
	}

	if err := s.accountRepo.Transaction(func(tx *gorm.DB) error {
		accountRepo := s.accountRepo.WithTx(tx)
		if err := accountRepo.Create(account); err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).CreateAccount(&models.WalletAccount{
			AccountID: account.ID,
		}); err != nil {
			return err
		}
		if err := s.reputationRepo.WithTx(tx).CreateRecord(&models.ReputationRecord{
			AccountID: account.ID,
			Tier:      constants.ReputationTierBronze,
		}); err != nil {
			return err
		}
		switch input.Role {
		case constants.RoleRestaurant:
			name := strings.TrimSpace(input.RestaurantName)
			if name == "" {
				name = account.DisplayName
			}
			return s.restaurantRepo.WithTx(tx).CreateProfile(&models.RestaurantProfile{
				AccountID:   account.ID,
				Name:        name,
				Cuisine:     strings.TrimSpace(input.Cuisine),
				Address:     strings.TrimSpace(input.Address),
				DeliveryFee: input.DeliveryFee,
				IsOpen:      true,
			})
		case constants.RoleDriver:
			return s.driverRepo.WithTx(tx).Create(&models.DriverProfile{
				AccountID: account.ID,
				Vehicle:   strings.TrimSpace(input.Vehicle),
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return account, nil
}

// Login 账户登录，返回账户与 JWT
func (s *AccountService) Login(email, password, clientIP, userAgent, requestID string) (*models.Account, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	account, err := s.accountRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if account == nil {
		s.recordLoginLog(0, normalized, "failed", "account_not_found", clientIP, userAgent, requestID)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !account.IsActive() {
		s.recordLoginLog(account.ID, normalized, "failed", "account_suspended", clientIP, userAgent, requestID)
		return nil, "", time.Time{}, ErrAccountSuspended
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.recordLoginLog(account.ID, normalized, "failed", "password_mismatch", clientIP, userAgent, requestID)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(account, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	account.LastLoginAt = &now
	if err := s.accountRepo.Update(account); err != nil {
		return nil, "", time.Time{}, err
	}
	s.recordLoginLog(account.ID, normalized, "success", "", clientIP, userAgent, requestID)
	_ = cache.SetAccountAuthState(context.Background(), cache.BuildAccountAuthState(account))

	return account, token, expiresAt, nil
}

// GenerateJWT 生成账户 JWT Token
func (s *AccountService) GenerateJWT(account *models.Account, expireHours int) (string, time.Time, error) {
	if expireHours <= 0 {
		expireHours = s.cfg.JWT.ExpireHours
		if expireHours <= 0 {
			expireHours = 24
		}
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := AccountJWTClaims{
		AccountID:    account.ID,
		Address:      account.Address,
		Role:         account.Role,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析账户 JWT Token
func (s *AccountService) ParseJWT(tokenString string) (*AccountJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &AccountJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AccountJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// GetByID 根据 ID 获取账户
func (s *AccountService) GetByID(id uint) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// GetByAddress 根据地址获取账户
func (s *AccountService) GetByAddress(address string) (*models.Account, error) {
	account, err := s.accountRepo.GetByAddress(address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// List 管理端分页查询账户
func (s *AccountService) List(filter repository.AccountListFilter) ([]models.Account, int64, error) {
	return s.accountRepo.List(filter)
}

// SetStatus 启停账户，供管理端与账户持有人自行停用使用
func (s *AccountService) SetStatus(id uint, status string) error {
	if status != "active" && status != "suspended" {
		return fmt.Errorf("unsupported account status: %s", status)
	}
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if err := s.accountRepo.UpdateFields(id, map[string]interface{}{
		"status": status,
	}); err != nil {
		return err
	}
	_ = cache.DelAccountAuthState(context.Background(), id)
	return nil
}

// ListLoginLogs 管理端查询登录日志
func (s *AccountService) ListLoginLogs(filter repository.AccountLoginLogListFilter) ([]models.AccountLoginLog, int64, error) {
	return s.accountRepo.ListLoginLogs(filter)
}

func (s *AccountService) recordLoginLog(accountID uint, email, status, failReason, clientIP, userAgent, requestID string) {
	// 登录日志写入失败不阻断主流程
	_ = s.accountRepo.CreateLoginLog(&models.AccountLoginLog{
		AccountID:  accountID,
		Email:      email,
		Status:     status,
		FailReason: failReason,
		ClientIP:   clientIP,
		UserAgent:  userAgent,
		RequestID:  requestID,
	})
}

func (s *AccountService) validatePassword(password string) error {
	policy := s.cfg.Security.PasswordPolicy
	minLength := policy.MinLength
	if minLength <= 0 {
		minLength = 8
	}
	if len(password) < minLength {
		return ErrWeakPassword
	}
	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	if policy.RequireUpper && !hasUpper {
		return ErrWeakPassword
	}
	if policy.RequireLower && !hasLower {
		return ErrWeakPassword
	}
	if policy.RequireNumber && !hasNumber {
		return ErrWeakPassword
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("无效的邮箱格式")
	}
	return email, nil
}

// generateAccountAddress 生成账户地址（0x + 20 字节随机数的 hex）
func generateAccountAddress() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}
