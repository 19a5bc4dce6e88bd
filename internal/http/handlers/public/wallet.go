package public

import (
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"

	"github.com/gin-gonic/gin"
)

// WalletDepositRequest 钱包充值请求
type WalletDepositRequest struct {
	Amount string `json:"amount" binding:"required"`
	Remark string `json:"remark"`
}

// GetMyWallet 获取当前账户钱包信息
func (h *Handler) GetMyWallet(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccount(aid)
	if err != nil {
		respondWithMappedError(c, err, walletErrorRules, response.CodeInternal, "钱包查询失败")
		return
	}
	response.Success(c, account)
}

// GetMyWalletTransactions 获取当前账户钱包流水
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	transactions, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		AccountID: aid,
		Type:      strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "钱包流水查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, transactions, pagination)
}

// DepositWallet 钱包充值
func (h *Handler) DepositWallet(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req WalletDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	amount, err := models.NewMoneyFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额格式错误", err)
		return
	}

	account, err := h.WalletService.Deposit(aid, amount, strings.TrimSpace(req.Remark))
	if err != nil {
		respondWithMappedError(c, err, walletErrorRules, response.CodeInternal, "充值失败")
		return
	}
	response.Success(c, account)
}
