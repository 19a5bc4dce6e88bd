package repository

import "time"

// AccountListFilter 查询账户列表的过滤条件
type AccountListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AccountLoginLogListFilter 查询账户登录日志列表的过滤条件
type AccountLoginLogListFilter struct {
	Page        int
	PageSize    int
	AccountID   uint
	Email       string
	Status      string
	ClientIP    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RestaurantListFilter 查询餐厅列表的过滤条件
type RestaurantListFilter struct {
	Page     int
	PageSize int
	Cuisine  string
	Search   string
	OnlyOpen bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	CustomerID   uint
	RestaurantID uint
	DriverID     uint
	Status       string
	OrderNo      string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// WalletTransactionListFilter 查询钱包流水列表的过滤条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	AccountID   uint
	OrderID     uint
	Type        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReputationEventListFilter 查询信誉事件列表的过滤条件
type ReputationEventListFilter struct {
	Page      int
	PageSize  int
	AccountID uint
	OrderID   uint
}

// DeliveryProofListFilter 查询送达凭证列表的过滤条件
type DeliveryProofListFilter struct {
	Page         int
	PageSize     int
	CustomerID   uint
	RestaurantID uint
	DriverID     uint
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}
