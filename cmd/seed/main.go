package main

import (
	"fmt"
	"time"

	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedMenuItem struct {
	Name        string
	Description string
	Price       float64
	Tags        []string
}

type seedRestaurant struct {
	Email       string
	Name        string
	Cuisine     string
	Address     string
	DeliveryFee float64
	Menu        []seedMenuItem
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}

	// 演示餐厅与菜单
	restaurants := []seedRestaurant{
		{
			Email:       "bitcoin-burger@forknet.local",
			Name:        "Bitcoin Burger",
			Cuisine:     "burger",
			Address:     "1 Genesis Block Ave",
			DeliveryFee: 2.99,
			Menu: []seedMenuItem{
				{Name: "双层安格斯堡", Description: "双层安格斯牛肉，车打芝士", Price: 12.99, Tags: []string{"招牌", "牛肉"}},
				{Name: "松露薯条", Description: "松露酱拌粗薯", Price: 6.99, Tags: []string{"小食"}},
				{Name: "经典芝士堡", Description: "单层牛肉饼配芝士", Price: 9.99, Tags: []string{"牛肉"}},
				{Name: "冰镇柠檬茶", Description: "现泡红茶加柠檬", Price: 3.50, Tags: []string{"饮品"}},
			},
		},
		{
			Email:       "noodle-node@forknet.local",
			Name:        "Noodle Node",
			Cuisine:     "noodles",
			Address:     "42 Consensus Street",
			DeliveryFee: 1.99,
			Menu: []seedMenuItem{
				{Name: "红烧牛肉面", Description: "慢炖牛腩，手工拉面", Price: 11.50, Tags: []string{"招牌", "面食"}},
				{Name: "担担面", Description: "川味麻酱，花生碎", Price: 9.00, Tags: []string{"辣", "面食"}},
				{Name: "凉拌黄瓜", Description: "蒜香凉菜", Price: 4.50, Tags: []string{"小食"}},
			},
		},
		{
			Email:       "sushi-chain@forknet.local",
			Name:        "Sushi Chain",
			Cuisine:     "sushi",
			Address:     "7 Hashrate Road",
			DeliveryFee: 3.99,
			Menu: []seedMenuItem{
				{Name: "三文鱼刺身", Description: "挪威三文鱼八片", Price: 15.80, Tags: []string{"刺身"}},
				{Name: "加州卷", Description: "蟹柳牛油果八粒", Price: 8.80, Tags: []string{"卷物"}},
				{Name: "味噌汤", Description: "豆腐裙带菜", Price: 2.80, Tags: []string{"汤"}},
			},
		},
	}

	for i, seed := range restaurants {
		var existing models.Account
		if err := models.DB.Where("email = ?", seed.Email).First(&existing).Error; err == nil {
			stdLog.Printf("Restaurant already exists: %s", seed.Name)
			continue
		}

		account := models.Account{
			Address:      fmt.Sprintf("0x%040x", time.Now().UnixNano()+int64(i)),
			Email:        seed.Email,
			PasswordHash: string(passwordHash),
			DisplayName:  seed.Name,
			Role:         constants.RoleRestaurant,
			Status:       "active",
		}
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create restaurant account %s: %v", seed.Name, err)
			continue
		}

		profile := models.RestaurantProfile{
			AccountID:   account.ID,
			Name:        seed.Name,
			Cuisine:     seed.Cuisine,
			Address:     seed.Address,
			DeliveryFee: models.NewMoneyFromDecimal(decimal.NewFromFloat(seed.DeliveryFee)),
			IsOpen:      true,
		}
		if err := models.DB.Create(&profile).Error; err != nil {
			stdLog.Printf("Failed to create restaurant profile %s: %v", seed.Name, err)
			continue
		}

		for order, item := range seed.Menu {
			menuItem := models.MenuItem{
				RestaurantID: profile.ID,
				Name:         item.Name,
				Description:  item.Description,
				Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(item.Price)),
				Tags:         models.StringArray(item.Tags),
				Available:    true,
				SortOrder:    order,
			}
			if err := models.DB.Create(&menuItem).Error; err != nil {
				stdLog.Printf("Failed to create menu item %s: %v", item.Name, err)
			}
		}

		seedSupportRows(stdLog.Printf, account.ID)
		stdLog.Printf("Created restaurant: %s (%d items)", seed.Name, len(seed.Menu))
	}

	// 演示顾客与骑手
	demoAccounts := []models.Account{
		{
			Address:      fmt.Sprintf("0x%040x", time.Now().UnixNano()+100),
			Email:        "alice@forknet.local",
			PasswordHash: string(passwordHash),
			DisplayName:  "Alice",
			Role:         constants.RoleCustomer,
			Status:       "active",
		},
		{
			Address:      fmt.Sprintf("0x%040x", time.Now().UnixNano()+101),
			Email:        "dave-driver@forknet.local",
			PasswordHash: string(passwordHash),
			DisplayName:  "Dave",
			Role:         constants.RoleDriver,
			Status:       "active",
		},
	}
	for _, account := range demoAccounts {
		var existing models.Account
		if err := models.DB.Where("email = ?", account.Email).First(&existing).Error; err == nil {
			stdLog.Printf("Account already exists: %s", account.Email)
			continue
		}
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create account %s: %v", account.Email, err)
			continue
		}
		if account.Role == constants.RoleDriver {
			driver := models.DriverProfile{
				AccountID: account.ID,
				Vehicle:   "electric bike",
				Available: true,
			}
			if err := models.DB.Create(&driver).Error; err != nil {
				stdLog.Printf("Failed to create driver profile %s: %v", account.Email, err)
			}
		}
		seedSupportRows(stdLog.Printf, account.ID)

		// 演示顾客预存余额，便于直接下单体验托管流程
		if account.Role == constants.RoleCustomer {
			var wallet models.WalletAccount
			if err := models.DB.Where("account_id = ?", account.ID).First(&wallet).Error; err == nil {
				wallet.Balance = models.NewMoneyFromDecimal(decimal.NewFromFloat(100))
				if err := models.DB.Save(&wallet).Error; err != nil {
					stdLog.Printf("Failed to fund wallet for %s: %v", account.Email, err)
				}
			}
		}
		stdLog.Printf("Created account: %s (%s)", account.Email, account.Role)
	}

	stdLog.Printf("Seed completed")
}

// seedSupportRows 初始化账户的钱包与信誉档案
func seedSupportRows(logf func(format string, v ...interface{}), accountID uint) {
	wallet := models.WalletAccount{AccountID: accountID}
	if err := models.DB.Where("account_id = ?", accountID).FirstOrCreate(&wallet).Error; err != nil {
		logf("Failed to create wallet for account %d: %v", accountID, err)
	}
	record := models.ReputationRecord{
		AccountID: accountID,
		Tier:      constants.ReputationTierBronze,
	}
	if err := models.DB.Where("account_id = ?", accountID).FirstOrCreate(&record).Error; err != nil {
		logf("Failed to create reputation record for account %d: %v", accountID, err)
	}
}
