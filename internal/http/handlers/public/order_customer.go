package public

import (
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderItemRequest 下单菜品请求
type CreateOrderItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	RestaurantID    uint                     `json:"restaurant_id" binding:"required"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required"`
	DeliveryAddress string                   `json:"delivery_address" binding:"required"`
	Note            string                   `json:"note"`
}

var createOrderErrorRules = []mappedHandlerError{
	{target: service.ErrCustomerInactive, code: response.CodeForbidden, msg: "账户状态不允许下单"},
	{target: service.ErrRestaurantInactive, code: response.CodeBadRequest, msg: "餐厅暂停营业"},
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, msg: "餐厅不存在"},
	{target: service.ErrOrderEmptyItems, code: response.CodeBadRequest, msg: "订单菜品不能为空"},
	{target: service.ErrMenuItemNotFound, code: response.CodeBadRequest, msg: "菜品不存在"},
	{target: service.ErrMenuItemUnavailable, code: response.CodeBadRequest, msg: "菜品已下架"},
	{target: service.ErrInsufficientFunds, code: response.CodeBadRequest, msg: "钱包余额不足"},
}

// CreateOrder 顾客下单，下单成功即完成资金托管
func (h *Handler) CreateOrder(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItemInput{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		CustomerID:      aid,
		RestaurantID:    req.RestaurantID,
		Items:           items,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Note:            strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondWithMappedError(c, err, createOrderErrorRules, response.CodeInternal, "下单失败")
		return
	}
	response.Success(c, order)
}

// GetMyOrders 顾客订单列表
func (h *Handler) GetMyOrders(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: aid,
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 查询单个订单（按访问人角色做归属校验）
func (h *Handler) GetOrder(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	order, err := h.OrderService.GetForActor(orderID, aid, getAccountRole(c))
	if err != nil {
		respondWithMappedError(c, err, orderAccessErrorRules, response.CodeInternal, "订单查询失败")
		return
	}
	response.Success(c, order)
}

// GetOrderHistory 查询订单状态流转历史
func (h *Handler) GetOrderHistory(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	changes, err := h.OrderService.StateHistory(orderID, aid, getAccountRole(c))
	if err != nil {
		respondWithMappedError(c, err, orderAccessErrorRules, response.CodeInternal, "订单历史查询失败")
		return
	}
	response.Success(c, changes)
}

// GetDeliveryCode 顾客查询收货码（仅骑手接单后可见）
func (h *Handler) GetDeliveryCode(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	code, err := h.OrderService.GetDeliveryCode(orderID, aid)
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "收货码查询失败")
		return
	}
	response.Success(c, gin.H{"delivery_code": code})
}

// ConfirmDeliveryRequest 确认收货请求
type ConfirmDeliveryRequest struct {
	Code   string `json:"code" binding:"required"`
	Rating int    `json:"rating"`
}

var confirmDeliveryErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidDeliveryCode, code: response.CodeBadRequest, msg: "收货码错误"},
	{target: service.ErrInvalidRating, code: response.CodeBadRequest, msg: "评分必须在 1 到 5 之间"},
	{target: service.ErrAlreadySettled, code: response.CodeConflict, msg: "订单资金已结算"},
}

// ConfirmDelivery 顾客确认收货，触发托管放款、凭证铸发与信誉计分
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}
	var req ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	order, err := h.OrderService.ConfirmDelivery(service.ConfirmDeliveryInput{
		OrderID:    orderID,
		CustomerID: aid,
		Code:       req.Code,
		Rating:     req.Rating,
	})
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules, confirmDeliveryErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "确认收货失败")
		return
	}
	response.Success(c, order)
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder 顾客取消订单（仅限餐厅接单前），已托管资金原路退回
func (h *Handler) CancelOrder(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	order, err := h.OrderService.CancelOrder(orderID, aid, constants.RoleCustomer, strings.TrimSpace(req.Reason))
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "取消订单失败")
		return
	}
	response.Success(c, order)
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
