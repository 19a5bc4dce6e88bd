package router

import (
	"fmt"
	"strings"

	"github.com/forknet/forknet/internal/cache"
	"github.com/forknet/forknet/internal/config"
	adminhandlers "github.com/forknet/forknet/internal/http/handlers/admin"
	publichandlers "github.com/forknet/forknet/internal/http/handlers/public"
	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/管理端分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fk"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}
	deliveryCodeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:delivery_code", redisPrefix),
		WindowSeconds: cfg.Security.DeliveryCodeRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.DeliveryCodeRateLimit.MaxAttempts,
		Message:       "收货码尝试过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/restaurants", publicHandler.ListRestaurants)
			public.GET("/restaurants/:id", publicHandler.GetRestaurant)
			public.POST("/proofs/verify", publicHandler.VerifyProof)
			public.GET("/accounts/:id/reputation", publicHandler.GetReputation)
		}

		// 账户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 需鉴权的接口
		authorized := apiV1.Group("")
		authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AccountRepo), RBACMiddleware(c.AuthzService))
		{
			// 账户与钱包（所有角色）
			authorized.GET("/me", publicHandler.GetMe)
			authorized.POST("/me/deactivate", publicHandler.DeactivateMe)
			authorized.GET("/me/wallet", publicHandler.GetMyWallet)
			authorized.GET("/me/wallet/transactions", publicHandler.GetMyWalletTransactions)
			authorized.POST("/me/wallet/deposit", publicHandler.DepositWallet)
			authorized.GET("/me/orders/:id", publicHandler.GetOrder)
			authorized.GET("/me/orders/:id/history", publicHandler.GetOrderHistory)

			// 顾客侧
			customer := authorized.Group("/customer")
			{
				customer.POST("/orders", publicHandler.CreateOrder)
				customer.GET("/orders", publicHandler.GetMyOrders)
				customer.GET("/orders/:id/delivery-code", publicHandler.GetDeliveryCode)
				customer.POST("/orders/:id/confirm", RateLimitMiddleware(redisClient, deliveryCodeRule, KeyByAccountAndPath), publicHandler.ConfirmDelivery)
				customer.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			}

			// 餐厅侧
			restaurant := authorized.Group("/restaurant")
			{
				restaurant.GET("/profile", publicHandler.GetMyRestaurant)
				restaurant.PUT("/profile", publicHandler.UpdateMyRestaurant)
				restaurant.GET("/menu", publicHandler.GetMyMenu)
				restaurant.POST("/menu", publicHandler.CreateMenuItem)
				restaurant.PUT("/menu/:id", publicHandler.UpdateMenuItem)
				restaurant.DELETE("/menu/:id", publicHandler.DeleteMenuItem)
				restaurant.GET("/orders", publicHandler.GetRestaurantOrders)
				restaurant.POST("/orders/:id/preparing", publicHandler.MarkOrderPreparing)
				restaurant.POST("/orders/:id/ready", publicHandler.MarkOrderReady)
				restaurant.POST("/orders/:id/cancel", publicHandler.CancelRestaurantOrder)
			}

			// 骑手侧
			driver := authorized.Group("/driver")
			{
				driver.GET("/profile", publicHandler.GetMyDriverProfile)
				driver.PUT("/availability", publicHandler.SetDriverAvailability)
				driver.PUT("/vehicle", publicHandler.UpdateDriverVehicle)
				driver.GET("/orders/pickup", publicHandler.GetPickupOrders)
				driver.GET("/orders", publicHandler.GetMyDeliveries)
				driver.POST("/orders/:id/claim", publicHandler.ClaimOrder)
				driver.POST("/orders/:id/start", publicHandler.StartDelivery)
			}

			// 管理端
			admin := authorized.Group("/admin")
			{
				admin.GET("/accounts", adminHandler.ListAccounts)
				admin.GET("/accounts/:id", adminHandler.GetAccount)
				admin.PUT("/accounts/:id/status", adminHandler.SetAccountStatus)
				admin.GET("/login-logs", adminHandler.ListLoginLogs)
				admin.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)

				admin.GET("/orders", adminHandler.ListOrders)
				admin.GET("/orders/:id", adminHandler.GetOrder)
				admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)
				admin.POST("/orders/:id/refund-timeout", adminHandler.RefundTimedOutOrder)
				admin.GET("/orders/:id/escrow", adminHandler.GetOrderEscrow)

				admin.GET("/escrow/stats", adminHandler.GetEscrowStats)
				admin.GET("/proofs", adminHandler.ListDeliveryProofs)
				admin.GET("/reputation-events", adminHandler.ListReputationEvents)
				admin.GET("/wallet-transactions", adminHandler.ListWalletTransactions)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
