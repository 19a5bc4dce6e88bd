package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	customerID, _ := strconv.ParseUint(c.Query("customer_id"), 10, 64)
	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)
	driverID, _ := strconv.ParseUint(c.Query("driver_id"), 10, 64)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:         page,
		PageSize:     pageSize,
		CustomerID:   uint(customerID),
		RestaurantID: uint(restaurantID),
		DriverID:     uint(driverID),
		Status:       strings.TrimSpace(c.Query("status")),
		OrderNo:      strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 管理端订单详情（含托管账户与状态历史）
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}
	order, err := h.OrderService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	changes, err := h.OrderService.StateHistory(id, 0, constants.RoleAdmin)
	if err != nil {
		respondError(c, response.CodeInternal, "订单历史查询失败", err)
		return
	}
	response.Success(c, gin.H{
		"order":         order,
		"state_changes": changes,
	})
}

// AdminCancelOrderRequest 管理端取消订单请求
type AdminCancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder 管理端取消订单（仅限餐厅接单前），已托管资金退回顾客
func (h *Handler) CancelOrder(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}
	var req AdminCancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	order, err := h.OrderService.CancelOrder(id, operatorID, constants.RoleAdmin, strings.TrimSpace(req.Reason))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrInvalidState):
			respondError(c, response.CodeConflict, "订单当前状态不允许取消", nil)
		default:
			respondError(c, response.CodeInternal, "取消订单失败", err)
		}
		return
	}

	h.recordAuditLog(c, operatorID, &id, "order.cancel", models.JSON{
		"order_no": order.OrderNo,
		"reason":   strings.TrimSpace(req.Reason),
	})
	response.Success(c, order)
}

// RefundTimedOutOrder 管理端手动触发配送超时退款
func (h *Handler) RefundTimedOutOrder(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	order, err := h.OrderService.RefundTimedOut(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrInvalidState):
			respondError(c, response.CodeConflict, "订单不在配送中", nil)
		case errors.Is(err, service.ErrDeliveryNotTimedOut):
			respondError(c, response.CodeBadRequest, "订单尚未超时", nil)
		default:
			respondError(c, response.CodeInternal, "超时退款失败", err)
		}
		return
	}

	h.recordAuditLog(c, operatorID, &id, "order.refund_timed_out", models.JSON{
		"order_no": order.OrderNo,
	})
	response.Success(c, order)
}
