package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/queue"
	"github.com/forknet/forknet/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CallerOrderOrchestrator 订单编排器在托管、凭证与信誉服务上的调用方标识
const CallerOrderOrchestrator = "order-orchestrator"

// OrderService 订单编排服务
// 驱动订单状态机，协调资金托管、送达凭证与信誉计分。
type OrderService struct {
	cfg            *config.Config
	orderRepo      repository.OrderRepository
	accountRepo    repository.AccountRepository
	restaurantRepo repository.RestaurantRepository
	driverRepo     repository.DriverRepository
	escrowSvc      *EscrowService
	proofSvc       *DeliveryProofService
	reputationSvc  *ReputationService
	queueClient    *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	accountRepo repository.AccountRepository,
	restaurantRepo repository.RestaurantRepository,
	driverRepo repository.DriverRepository,
	escrowSvc *EscrowService,
	proofSvc *DeliveryProofService,
	reputationSvc *ReputationService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		cfg:            cfg,
		orderRepo:      orderRepo,
		accountRepo:    accountRepo,
		restaurantRepo: restaurantRepo,
		driverRepo:     driverRepo,
		escrowSvc:      escrowSvc,
		proofSvc:       proofSvc,
		reputationSvc:  reputationSvc,
		queueClient:    queueClient,
	}
}

// CreateOrderItemInput 下单菜品输入
type CreateOrderItemInput struct {
	MenuItemID uint
	Quantity   int
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	CustomerID      uint
	RestaurantID    uint
	Items           []CreateOrderItemInput
	DeliveryAddress string
	Note            string
	ClientIP        string
}

// ConfirmDeliveryInput 确认收货输入
type ConfirmDeliveryInput struct {
	OrderID    uint
	CustomerID uint
	Code       string
	Rating     int // 0 表示不评分
}

// CreateOrder 创建订单并锁定顾客资金
// 下单与托管在同一事务内完成，钱包余额不足时整体回滚。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrOrderEmptyItems
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("收货地址不能为空")
	}

	customer, err := s.accountRepo.GetByID(input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil || customer.Role != constants.RoleCustomer {
		return nil, ErrAccountNotFound
	}
	if !customer.IsActive() {
		return nil, ErrCustomerInactive
	}

	profile, err := s.restaurantRepo.GetProfileByID(input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	restaurantAccount, err := s.accountRepo.GetByID(profile.AccountID)
	if err != nil {
		return nil, err
	}
	if restaurantAccount == nil || !restaurantAccount.IsActive() || !profile.IsOpen {
		return nil, ErrRestaurantInactive
	}

	itemIDs := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, ErrOrderEmptyItems
		}
		itemIDs = append(itemIDs, item.MenuItemID)
	}
	menuItems, err := s.restaurantRepo.GetMenuItemsByIDs(profile.ID, itemIDs)
	if err != nil {
		return nil, err
	}
	menuByID := make(map[uint]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		menuByID[mi.ID] = mi
	}

	subtotal := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		mi, ok := menuByID[item.MenuItemID]
		if !ok {
			return nil, ErrMenuItemNotFound
		}
		if !mi.Available {
			return nil, ErrMenuItemUnavailable
		}
		lineTotal := mi.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   item.Quantity,
			TotalPrice: models.NewMoneyFromDecimal(lineTotal),
		})
	}

	taxRate := decimal.NewFromFloat(s.cfg.Order.TaxRatePercent)
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(profile.DeliveryFee.Decimal).Add(tax)

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		CustomerID:      customer.ID,
		RestaurantID:    profile.ID,
		Status:          constants.OrderStatusCreated,
		Subtotal:        models.NewMoneyFromDecimal(subtotal),
		DeliveryFee:     profile.DeliveryFee,
		Tax:             models.NewMoneyFromDecimal(tax),
		TotalAmount:     models.NewMoneyFromDecimal(total),
		DeliveryAddress: address,
		Note:            strings.TrimSpace(input.Note),
		ClientIP:        input.ClientIP,
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, orderItems); err != nil {
			return err
		}
		if err := orderRepo.CreateStateChange(&models.OrderStateChange{
			OrderID:    order.ID,
			FromStatus: "",
			ToStatus:   constants.OrderStatusCreated,
			ActorID:    customer.ID,
			ActorRole:  constants.RoleCustomer,
		}); err != nil {
			return err
		}
		if _, err := s.escrowSvc.Lock(tx, CallerOrderOrchestrator, order); err != nil {
			return err
		}
		now := time.Now()
		if err := s.transition(tx, order, constants.OrderStatusEscrowed, map[string]interface{}{
			"escrowed_at": now,
		}, customer.ID, constants.RoleCustomer, "资金托管"); err != nil {
			return err
		}
		order.EscrowedAt = &now
		return nil
	}); err != nil {
		return nil, err
	}

	logger.Infow("order_created",
		"order_no", order.OrderNo,
		"customer_id", order.CustomerID,
		"restaurant_id", order.RestaurantID,
		"total", order.TotalAmount.String(),
	)
	return s.GetByID(order.ID)
}

// MarkPreparing 餐厅接单开始备餐
func (s *OrderService) MarkPreparing(orderID, restaurantAccountID uint) (*models.Order, error) {
	return s.restaurantTransition(orderID, restaurantAccountID,
		constants.OrderStatusEscrowed, constants.OrderStatusPreparing, nil, "餐厅接单")
}

// MarkReady 餐厅出餐待取
func (s *OrderService) MarkReady(orderID, restaurantAccountID uint) (*models.Order, error) {
	now := time.Now()
	return s.restaurantTransition(orderID, restaurantAccountID,
		constants.OrderStatusPreparing, constants.OrderStatusReadyForPickup,
		map[string]interface{}{"ready_at": now}, "出餐完成")
}

// AssignDriver 骑手接单并生成收货码
func (s *OrderService) AssignDriver(orderID, driverAccountID uint) (*models.Order, error) {
	driver, err := s.accountRepo.GetByID(driverAccountID)
	if err != nil {
		return nil, err
	}
	if driver == nil || driver.Role != constants.RoleDriver {
		return nil, ErrAccountNotFound
	}
	if !driver.IsActive() {
		return nil, ErrDriverInactive
	}

	code, err := generateDeliveryCode(s.cfg.Delivery.CodeLength)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !canTransition(order.Status, constants.OrderStatusAssignedDriver) {
			return ErrInvalidState
		}

		profile, err := s.driverRepo.WithTx(tx).GetByAccountIDForUpdate(driverAccountID)
		if err != nil {
			return err
		}
		if profile == nil || !profile.Available {
			return ErrDriverInactive
		}
		if profile.ActiveOrderID != nil {
			return ErrDriverBusy
		}

		now := time.Now()
		if err := s.transition(tx, order, constants.OrderStatusAssignedDriver, map[string]interface{}{
			"driver_id":          driverAccountID,
			"delivery_code":      code,
			"delivery_code_hash": hashDeliveryCode(code),
			"assigned_at":        now,
		}, driverAccountID, constants.RoleDriver, "骑手接单"); err != nil {
			return err
		}

		profile.ActiveOrderID = &order.ID
		return s.driverRepo.WithTx(tx).Update(profile)
	}); err != nil {
		return nil, err
	}

	return s.GetByID(orderID)
}

// StartDelivery 骑手取餐开始配送，并登记超时退款任务
func (s *OrderService) StartDelivery(orderID, driverAccountID uint) (*models.Order, error) {
	timeout := time.Duration(s.cfg.Delivery.TimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = 90 * time.Minute
	}

	var deadline time.Time
	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.DriverID == nil || *order.DriverID != driverAccountID {
			return ErrOrderAccessDenied
		}
		if !canTransition(order.Status, constants.OrderStatusOutForDelivery) {
			return ErrInvalidState
		}

		now := time.Now()
		deadline = now.Add(timeout)
		return s.transition(tx, order, constants.OrderStatusOutForDelivery, map[string]interface{}{
			"picked_up_at":      now,
			"delivery_deadline": deadline,
		}, driverAccountID, constants.RoleDriver, "取餐配送")
	}); err != nil {
		return nil, err
	}

	// 任务入队失败只记日志，后台巡检兜底
	if err := s.queueClient.EnqueueDeliveryTimeoutRefund(queue.DeliveryTimeoutRefundPayload{
		OrderID: orderID,
	}, time.Until(deadline)); err != nil {
		logger.Warnw("delivery_timeout_task_enqueue_failed", "order_id", orderID, "error", err)
	}

	return s.GetByID(orderID)
}

// ConfirmDelivery 顾客凭收货码确认送达并原子结算
// 同一事务内完成：放款分账、凭证铸发、信誉计分、收货码清除。
// 收货码错误只返回 ErrInvalidDeliveryCode，订单与托管状态不变。
func (s *OrderService) ConfirmDelivery(input ConfirmDeliveryInput) (*models.Order, error) {
	if input.Rating < 0 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.CustomerID != input.CustomerID {
			return ErrOrderAccessDenied
		}
		if order.Status != constants.OrderStatusOutForDelivery {
			return ErrInvalidState
		}
		if !matchDeliveryCode(input.Code, order.DeliveryCodeHash) {
			return ErrInvalidDeliveryCode
		}

		now := time.Now()
		onTime := order.DeliveryDeadline == nil || !now.After(*order.DeliveryDeadline)

		deliveredUpdates := map[string]interface{}{
			"delivered_at": now,
		}
		if input.Rating > 0 {
			deliveredUpdates["rating"] = input.Rating
		}
		if err := s.transition(tx, order, constants.OrderStatusDelivered, deliveredUpdates,
			input.CustomerID, constants.RoleCustomer, "确认收货"); err != nil {
			return err
		}

		profile, err := s.restaurantRepo.WithTx(tx).GetProfileByID(order.RestaurantID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrProfileNotFound
		}

		if _, err := s.escrowSvc.Release(tx, CallerOrderOrchestrator, EscrowReleaseInput{
			OrderID:             order.ID,
			RestaurantAccountID: profile.AccountID,
			DriverAccountID:     *order.DriverID,
		}); err != nil {
			return err
		}

		if _, err := s.proofSvc.Mint(tx, CallerOrderOrchestrator, MintInput{
			Order:       order,
			CodeHash:    order.DeliveryCodeHash,
			DeliveredAt: now,
			OnTime:      onTime,
		}); err != nil {
			return err
		}

		// 骑手按完成与准时计分，餐厅按完成与顾客评分计分
		if _, err := s.reputationSvc.RecordInteraction(tx, CallerOrderOrchestrator, InteractionInput{
			AccountID: *order.DriverID,
			OrderID:   order.ID,
			Completed: true,
			OnTime:    onTime,
			Remark:    "配送完成",
		}); err != nil {
			return err
		}
		if _, err := s.reputationSvc.RecordInteraction(tx, CallerOrderOrchestrator, InteractionInput{
			AccountID: profile.AccountID,
			OrderID:   order.ID,
			Completed: true,
			Rating:    input.Rating,
			OnTime:    onTime,
			Remark:    "订单完成",
		}); err != nil {
			return err
		}

		if input.Rating > 0 {
			profile.Rating = (profile.Rating*float64(profile.RatingCount) + float64(input.Rating)) / float64(profile.RatingCount+1)
			profile.RatingCount++
			if err := s.restaurantRepo.WithTx(tx).UpdateProfile(profile); err != nil {
				return err
			}
		}

		driverProfile, err := s.driverRepo.WithTx(tx).GetByAccountIDForUpdate(*order.DriverID)
		if err != nil {
			return err
		}
		if driverProfile != nil {
			driverProfile.ActiveOrderID = nil
			driverProfile.CompletedCount++
			if onTime {
				driverProfile.OnTimeCount++
			}
			if err := s.driverRepo.WithTx(tx).Update(driverProfile); err != nil {
				return err
			}
		}

		// 结算完成后清除收货码明文
		return s.transition(tx, order, constants.OrderStatusSettled, map[string]interface{}{
			"settled_at":    now,
			"delivery_code": "",
		}, input.CustomerID, constants.RoleCustomer, "结算完成")
	}); err != nil {
		return nil, err
	}

	logger.Infow("order_settled", "order_id", input.OrderID)
	return s.GetByID(input.OrderID)
}

// CancelOrder 取消订单
// created / escrowed / preparing 可取消，出餐待取后拒绝；已托管资金全额退回。
func (s *OrderService) CancelOrder(orderID, actorID uint, actorRole, reason string) (*models.Order, error) {
	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		switch actorRole {
		case constants.RoleCustomer:
			if order.CustomerID != actorID {
				return ErrOrderAccessDenied
			}
		case constants.RoleRestaurant:
			profile, err := s.restaurantRepo.GetProfileByAccountID(actorID)
			if err != nil {
				return err
			}
			if profile == nil || order.RestaurantID != profile.ID {
				return ErrOrderAccessDenied
			}
		}
		if !canTransition(order.Status, constants.OrderStatusCancelled) {
			return ErrInvalidState
		}

		switch order.Status {
		case constants.OrderStatusEscrowed, constants.OrderStatusPreparing:
			if _, err := s.escrowSvc.Refund(tx, CallerOrderOrchestrator, order.ID, reason); err != nil {
				return err
			}
		}

		now := time.Now()
		return s.transition(tx, order, constants.OrderStatusCancelled, map[string]interface{}{
			"canceled_at": now,
		}, actorID, actorRole, reason)
	}); err != nil {
		return nil, err
	}
	return s.GetByID(orderID)
}

// RefundTimedOut 配送超时自动退款（系统触发）
// 仅对超过配送截止时间仍未确认送达的订单生效。
func (s *OrderService) RefundTimedOut(orderID uint) (*models.Order, error) {
	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.OrderStatusOutForDelivery {
			return ErrInvalidState
		}
		if order.DeliveryDeadline == nil || time.Now().Before(*order.DeliveryDeadline) {
			return ErrDeliveryNotTimedOut
		}

		if _, err := s.escrowSvc.Refund(tx, CallerOrderOrchestrator, order.ID, "配送超时自动退款"); err != nil {
			return err
		}

		if order.DriverID != nil {
			driverProfile, err := s.driverRepo.WithTx(tx).GetByAccountIDForUpdate(*order.DriverID)
			if err != nil {
				return err
			}
			if driverProfile != nil {
				driverProfile.ActiveOrderID = nil
				if err := s.driverRepo.WithTx(tx).Update(driverProfile); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		return s.transition(tx, order, constants.OrderStatusRefunded, map[string]interface{}{
			"refunded_at":   now,
			"delivery_code": "",
		}, 0, "system", "配送超时自动退款")
	}); err != nil {
		return nil, err
	}

	logger.Warnw("order_delivery_timeout_refunded", "order_id", orderID)
	return s.GetByID(orderID)
}

// SweepTimedOut 巡检配送超时订单并退款，返回处理数量
func (s *OrderService) SweepTimedOut(limit int) (int, error) {
	orders, err := s.orderRepo.ListDeliveryTimedOut(time.Now(), limit)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, order := range orders {
		if _, err := s.RefundTimedOut(order.ID); err != nil {
			// 单笔失败不阻断巡检
			logger.Warnw("delivery_timeout_sweep_refund_failed", "order_id", order.ID, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// GetByID 获取订单详情
func (s *OrderService) GetByID(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForActor 获取订单详情并校验访问权限
func (s *OrderService) GetForActor(orderID, actorID uint, actorRole string) (*models.Order, error) {
	order, err := s.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(order, actorID, actorRole); err != nil {
		return nil, err
	}
	return order, nil
}

// GetDeliveryCode 顾客查询在途订单收货码
func (s *OrderService) GetDeliveryCode(orderID, customerID uint) (string, error) {
	order, err := s.GetByID(orderID)
	if err != nil {
		return "", err
	}
	if order.CustomerID != customerID {
		return "", ErrOrderAccessDenied
	}
	switch order.Status {
	case constants.OrderStatusAssignedDriver, constants.OrderStatusOutForDelivery:
		return order.DeliveryCode, nil
	}
	return "", ErrInvalidState
}

// List 分页查询订单
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// StateHistory 查询订单状态流转历史
func (s *OrderService) StateHistory(orderID, actorID uint, actorRole string) ([]models.OrderStateChange, error) {
	order, err := s.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(order, actorID, actorRole); err != nil {
		return nil, err
	}
	return s.orderRepo.ListStateChanges(orderID)
}

func (s *OrderService) checkAccess(order *models.Order, actorID uint, actorRole string) error {
	switch actorRole {
	case constants.RoleAdmin:
		return nil
	case constants.RoleCustomer:
		if order.CustomerID == actorID {
			return nil
		}
	case constants.RoleDriver:
		if order.DriverID != nil && *order.DriverID == actorID {
			return nil
		}
	case constants.RoleRestaurant:
		profile, err := s.restaurantRepo.GetProfileByAccountID(actorID)
		if err != nil {
			return err
		}
		if profile != nil && order.RestaurantID == profile.ID {
			return nil
		}
	}
	return ErrOrderAccessDenied
}

// restaurantTransition 餐厅侧状态迁移的公共包装
func (s *OrderService) restaurantTransition(orderID, restaurantAccountID uint, from, to string, updates map[string]interface{}, reason string) (*models.Order, error) {
	profile, err := s.restaurantRepo.GetProfileByAccountID(restaurantAccountID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.RestaurantID != profile.ID {
			return ErrOrderAccessDenied
		}
		if order.Status != from || !canTransition(order.Status, to) {
			return ErrInvalidState
		}
		return s.transition(tx, order, to, updates, restaurantAccountID, constants.RoleRestaurant, reason)
	}); err != nil {
		return nil, err
	}
	return s.GetByID(orderID)
}

// transition 在事务内写入状态变更与审计记录
func (s *OrderService) transition(tx *gorm.DB, order *models.Order, target string, updates map[string]interface{}, actorID uint, actorRole, reason string) error {
	if !canTransition(order.Status, target) {
		return ErrInvalidState
	}
	orderRepo := s.orderRepo.WithTx(tx)
	if err := orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
		return err
	}
	if err := orderRepo.CreateStateChange(&models.OrderStateChange{
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   target,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Reason:     reason,
	}); err != nil {
		return err
	}
	order.Status = target
	return nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("FN%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
