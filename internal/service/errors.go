package service

import "errors"

// 账户相关错误
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrWeakPassword        = errors.New("password does not meet policy")
	ErrInvalidRole         = errors.New("invalid account role")
	ErrCustomerInactive    = errors.New("customer account inactive")
	ErrRestaurantInactive  = errors.New("restaurant not accepting orders")
	ErrDriverInactive      = errors.New("driver not available")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item unavailable")
)

// 钱包相关错误
var (
	ErrWalletAccountNotFound = errors.New("wallet account not found")
	ErrInsufficientFunds     = errors.New("insufficient wallet balance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrDuplicateReference    = errors.New("duplicate transaction reference")
)

// 托管与结算相关错误
var (
	ErrNotAuthorized      = errors.New("caller not authorized")
	ErrEscrowNotFound     = errors.New("escrow not found")
	ErrEscrowExists       = errors.New("escrow already exists for order")
	ErrAlreadySettled     = errors.New("escrow already settled")
	ErrInvalidSplit       = errors.New("settlement split does not cover escrow amount")
	ErrProofAlreadyExists = errors.New("delivery proof already minted for order")
	ErrProofNotFound      = errors.New("delivery proof not found")
)

// 订单相关错误
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidState        = errors.New("invalid order state transition")
	ErrOrderEmptyItems     = errors.New("order has no items")
	ErrInvalidDeliveryCode = errors.New("invalid delivery code")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrOrderAccessDenied   = errors.New("order access denied")
	ErrDriverBusy          = errors.New("driver already has an active delivery")
	ErrDeliveryNotTimedOut = errors.New("delivery deadline not reached")
)
