package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrderEscrow 管理端查询订单托管账户
func (h *Handler) GetOrderEscrow(c *gin.Context) {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}
	escrow, err := h.EscrowService.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, service.ErrEscrowNotFound) {
			respondError(c, response.CodeNotFound, "托管账户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "托管账户查询失败", err)
		return
	}
	response.Success(c, escrow)
}

// GetEscrowStats 管理端托管概览
func (h *Handler) GetEscrowStats(c *gin.Context) {
	pending, err := h.EscrowService.CountPending()
	if err != nil {
		respondError(c, response.CodeInternal, "托管统计查询失败", err)
		return
	}
	response.Success(c, gin.H{"pending_count": pending})
}

// ListDeliveryProofs 管理端送达凭证列表
func (h *Handler) ListDeliveryProofs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	customerID, _ := strconv.ParseUint(c.Query("customer_id"), 10, 64)
	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)
	driverID, _ := strconv.ParseUint(c.Query("driver_id"), 10, 64)

	proofs, total, err := h.ProofService.List(repository.DeliveryProofListFilter{
		Page:         page,
		PageSize:     pageSize,
		CustomerID:   uint(customerID),
		RestaurantID: uint(restaurantID),
		DriverID:     uint(driverID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "凭证查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, proofs, pagination)
}

// ListReputationEvents 管理端信誉事件列表
func (h *Handler) ListReputationEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	accountID, _ := strconv.ParseUint(c.Query("account_id"), 10, 64)
	orderID, _ := strconv.ParseUint(c.Query("order_id"), 10, 64)

	events, total, err := h.ReputationService.ListEvents(repository.ReputationEventListFilter{
		Page:      page,
		PageSize:  pageSize,
		AccountID: uint(accountID),
		OrderID:   uint(orderID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "信誉事件查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, events, pagination)
}

// ListWalletTransactions 管理端钱包流水列表
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	accountID, _ := strconv.ParseUint(c.Query("account_id"), 10, 64)
	orderID, _ := strconv.ParseUint(c.Query("order_id"), 10, 64)

	transactions, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		AccountID: uint(accountID),
		OrderID:   uint(orderID),
		Type:      strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "钱包流水查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, transactions, pagination)
}
