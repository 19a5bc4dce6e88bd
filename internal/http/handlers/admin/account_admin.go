package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAccounts 管理端账户列表
func (h *Handler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	accounts, total, err := h.AccountService.List(repository.AccountListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "账户查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, accounts, pagination)
}

// GetAccount 管理端账户详情（含钱包与信誉）
func (h *Handler) GetAccount(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "账户 ID 无效", err)
		return
	}
	account, err := h.AccountService.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "账户查询失败", err)
		return
	}
	if account == nil {
		respondError(c, response.CodeNotFound, "账户不存在", nil)
		return
	}
	wallet, err := h.WalletService.GetAccount(id)
	if err != nil {
		respondError(c, response.CodeInternal, "钱包查询失败", err)
		return
	}
	reputation, err := h.ReputationService.GetRecord(id)
	if err != nil {
		respondError(c, response.CodeInternal, "信誉查询失败", err)
		return
	}
	response.Success(c, gin.H{
		"account":    account,
		"wallet":     wallet,
		"reputation": reputation,
	})
}

// SetAccountStatusRequest 账户状态设置请求
type SetAccountStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// SetAccountStatus 管理端启停账户。停用会立即失效该账户的登录态缓存。
func (h *Handler) SetAccountStatus(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "账户 ID 无效", err)
		return
	}
	var req SetAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if err := h.AccountService.SetStatus(id, status); err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			respondError(c, response.CodeNotFound, "账户不存在", nil)
		default:
			respondError(c, response.CodeBadRequest, "账户状态设置失败", err)
		}
		return
	}

	h.recordAuditLog(c, operatorID, &id, "account.set_status", models.JSON{
		"status": status,
		"reason": strings.TrimSpace(req.Reason),
	})
	response.Success(c, gin.H{"id": id, "status": status})
}

// ListLoginLogs 管理端账户登录日志
func (h *Handler) ListLoginLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	accountID, _ := strconv.ParseUint(c.Query("account_id"), 10, 64)
	logs, total, err := h.AccountService.ListLoginLogs(repository.AccountLoginLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		AccountID: uint(accountID),
		Email:     strings.TrimSpace(c.Query("email")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "登录日志查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, logs, pagination)
}

// ListAuthzAuditLogs 管理端权限审计日志
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	operatorID, _ := strconv.ParseUint(c.Query("operator_id"), 10, 64)
	logs, total, err := h.AuthzAuditLogRepo.List(page, pageSize, uint(operatorID))
	if err != nil {
		respondError(c, response.CodeInternal, "审计日志查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, logs, pagination)
}

// recordAuditLog 写入管理操作审计日志，失败不阻断主流程
func (h *Handler) recordAuditLog(c *gin.Context, operatorID uint, targetID *uint, action string, detail models.JSON) {
	requestID := ""
	if v, ok := c.Get("request_id"); ok {
		if id, ok := v.(string); ok {
			requestID = id
		}
	}
	operatorAddress := ""
	if operator, err := h.AccountService.GetByID(operatorID); err == nil && operator != nil {
		operatorAddress = operator.Address
	}
	entry := &models.AuthzAuditLog{
		OperatorID:      operatorID,
		OperatorAddress: operatorAddress,
		TargetID:        targetID,
		Action:          action,
		Object:          c.FullPath(),
		Method:          c.Request.Method,
		RequestID:       requestID,
		DetailJSON:      detail,
	}
	if err := h.AuthzAuditLogRepo.Create(entry); err != nil {
		respondLog(c).Warnw("admin_audit_log_write_failed", "action", action, "error", err)
	}
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
