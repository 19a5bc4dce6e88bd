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

var driverConsoleErrorRules = []mappedHandlerError{
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, msg: "骑手档案不存在"},
	{target: service.ErrDriverInactive, code: response.CodeForbidden, msg: "骑手账户状态不允许接单"},
	{target: service.ErrDriverBusy, code: response.CodeConflict, msg: "骑手当前有进行中的配送"},
}

// GetMyDriverProfile 骑手查询自己的档案
func (h *Handler) GetMyDriverProfile(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	profile, err := h.DriverService.GetProfileByAccountID(aid)
	if err != nil {
		respondWithMappedError(c, err, driverConsoleErrorRules, response.CodeInternal, "骑手档案查询失败")
		return
	}
	response.Success(c, profile)
}

// DriverAvailabilityRequest 接单状态设置请求
type DriverAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetDriverAvailability 骑手设置接单状态
func (h *Handler) SetDriverAvailability(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req DriverAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	profile, err := h.DriverService.SetAvailability(aid, *req.Available)
	if err != nil {
		respondWithMappedError(c, err, driverConsoleErrorRules, response.CodeInternal, "接单状态设置失败")
		return
	}
	response.Success(c, profile)
}

// DriverVehicleRequest 交通工具更新请求
type DriverVehicleRequest struct {
	Vehicle string `json:"vehicle" binding:"required"`
}

// UpdateDriverVehicle 骑手更新交通工具
func (h *Handler) UpdateDriverVehicle(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req DriverVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	profile, err := h.DriverService.UpdateVehicle(aid, strings.TrimSpace(req.Vehicle))
	if err != nil {
		respondWithMappedError(c, err, driverConsoleErrorRules, response.CodeInternal, "骑手档案更新失败")
		return
	}
	response.Success(c, profile)
}

// GetPickupOrders 骑手查询待接单订单（已出餐待取）
func (h *Handler) GetPickupOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   constants.OrderStatusReadyForPickup,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetMyDeliveries 骑手查询自己的配送单
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		DriverID: aid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// ClaimOrder 骑手认领订单
func (h *Handler) ClaimOrder(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	order, err := h.OrderService.AssignDriver(orderID, aid)
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules, driverConsoleErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "接单失败")
		return
	}
	response.Success(c, order)
}

// StartDelivery 骑手取餐出发配送
func (h *Handler) StartDelivery(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	order, err := h.OrderService.StartDelivery(orderID, aid)
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules, driverConsoleErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "开始配送失败")
		return
	}
	response.Success(c, order)
}
