package provider

import (
	"github.com/forknet/forknet/internal/authz"
	"github.com/forknet/forknet/internal/cache"
	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/queue"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AccountRepo       repository.AccountRepository
	RestaurantRepo    repository.RestaurantRepository
	DriverRepo        repository.DriverRepository
	OrderRepo         repository.OrderRepository
	EscrowRepo        repository.EscrowRepository
	WalletRepo        repository.WalletRepository
	ReputationRepo    repository.ReputationRepository
	DeliveryProofRepo repository.DeliveryProofRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// Services
	AuthzService      *authz.Service
	AccountService    *service.AccountService
	RestaurantService *service.RestaurantService
	DriverService     *service.DriverService
	WalletService     *service.WalletService
	EscrowService     *service.EscrowService
	ProofService      *service.DeliveryProofService
	ReputationService *service.ReputationService
	OrderService      *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 装配节点间授权与平台账户
	c.bootstrap()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AccountRepo = repository.NewAccountRepository(db)
	c.RestaurantRepo = repository.NewRestaurantRepository(db)
	c.DriverRepo = repository.NewDriverRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.EscrowRepo = repository.NewEscrowRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.ReputationRepo = repository.NewReputationRepository(db)
	c.DeliveryProofRepo = repository.NewDeliveryProofRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AccountService = service.NewAccountService(c.Config, c.AccountRepo, c.WalletRepo, c.RestaurantRepo, c.DriverRepo, c.ReputationRepo)
	c.RestaurantService = service.NewRestaurantService(c.RestaurantRepo)
	c.DriverService = service.NewDriverService(c.DriverRepo)
	c.WalletService = service.NewWalletService(c.WalletRepo)
	c.EscrowService = service.NewEscrowService(c.Config, c.EscrowRepo, c.WalletService)
	c.ProofService = service.NewDeliveryProofService(c.DeliveryProofRepo)
	c.ReputationService = service.NewReputationService(c.ReputationRepo)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.AccountRepo, c.RestaurantRepo, c.DriverRepo, c.EscrowService, c.ProofService, c.ReputationService, c.QueueClient)
}

// bootstrap 登记资金托管、送达凭证与信誉计分三个节点的授权调用方，
// 并确保平台分成账户存在。
func (c *Container) bootstrap() {
	c.EscrowService.SetAuthorizedCaller(service.CallerOrderOrchestrator)
	c.ProofService.SetAuthorizedCaller(service.CallerOrderOrchestrator)
	c.ReputationService.SetAuthorizedCaller(service.CallerOrderOrchestrator)

	platformID, err := c.ensurePlatformAccount()
	if err != nil {
		logger.Errorw("provider_ensure_platform_account_failed", "error", err)
		panic(err)
	}
	c.EscrowService.SetPlatformAccount(platformID)
}

// ensurePlatformAccount 确保平台分成入账账户存在并返回其 ID。
func (c *Container) ensurePlatformAccount() (uint, error) {
	account, err := c.AccountRepo.GetByAddress(constants.PlatformAccountAddress)
	if err != nil {
		return 0, err
	}
	if account != nil {
		return account.ID, nil
	}

	platform := &models.Account{
		Address:     constants.PlatformAccountAddress,
		Email:       "platform@forknet.local",
		DisplayName: "ForkNet Platform",
		Role:        constants.RoleAdmin,
		Status:      "active",
	}
	if err := c.AccountRepo.Create(platform); err != nil {
		return 0, err
	}
	if _, err := c.WalletService.GetAccount(platform.ID); err != nil {
		return 0, err
	}
	logger.Infow("provider_platform_account_created", "account_id", platform.ID, "address", platform.Address)
	return platform.ID, nil
}
