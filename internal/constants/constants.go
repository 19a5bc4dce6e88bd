package constants

// 账户角色常量
const (
	RoleCustomer   = "customer"
	RoleRestaurant = "restaurant"
	RoleDriver     = "driver"
	RoleAdmin      = "admin"
)

// 订单状态常量
const (
	OrderStatusCreated        = "created"
	OrderStatusEscrowed       = "escrowed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusAssignedDriver = "assigned_driver"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusSettled        = "settled"
	OrderStatusCancelled      = "cancelled"
	OrderStatusRefunded       = "refunded"
)

// 托管账户结算动作常量
const (
	EscrowActionLock    = "lock"
	EscrowActionRelease = "release"
	EscrowActionRefund  = "refund"
)

// 钱包交易类型常量
const (
	WalletTxnTypeDeposit      = "deposit"
	WalletTxnTypeEscrowLock   = "escrow_lock"
	WalletTxnTypeEscrowPayout = "escrow_payout"
	WalletTxnTypeEscrowRefund = "escrow_refund"
	WalletTxnTypeAdminAdjust  = "admin_adjust"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 信誉等级常量
const (
	ReputationTierBronze   = "bronze"
	ReputationTierSilver   = "silver"
	ReputationTierGold     = "gold"
	ReputationTierPlatinum = "platinum"
)

// 信誉评分权重（单次交互满分 100：完成 40 + 评分 5×6 + 准时 20 + 活跃 10）
const (
	ReputationWeightCompletion = 40
	ReputationWeightPerRating  = 6
	ReputationWeightOnTime     = 20
	ReputationWeightActivity   = 10
)

// 信誉等级分界（累计分下界，bronze 为默认档）
const (
	ReputationTierSilverMin   = 101
	ReputationTierGoldMin     = 251
	ReputationTierPlatinumMin = 501
)

// 异步任务名称常量
const (
	TaskDeliveryTimeoutRefund = "delivery:timeout_refund"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 平台结算账户地址（平台分成入账的内部账户）
const PlatformAccountAddress = "0x0000000000000000000000000000000000f04cce"
