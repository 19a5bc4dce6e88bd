package public

import (
	"errors"
	"strings"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`

	// 餐厅角色的经营信息
	RestaurantName string `json:"restaurant_name"`
	Cuisine        string `json:"cuisine"`
	Address        string `json:"address"`
	DeliveryFee    string `json:"delivery_fee"`

	// 骑手角色的接单信息
	Vehicle string `json:"vehicle"`
}

// Register 注册账户
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	deliveryFee := models.Money{}
	if strings.TrimSpace(req.DeliveryFee) != "" {
		fee, err := models.NewMoneyFromString(req.DeliveryFee)
		if err != nil {
			respondError(c, response.CodeBadRequest, "配送费格式错误", err)
			return
		}
		deliveryFee = fee
	}

	account, err := h.AccountService.Register(service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		DisplayName:    req.DisplayName,
		Role:           req.Role,
		RestaurantName: req.RestaurantName,
		Cuisine:        req.Cuisine,
		Address:        req.Address,
		DeliveryFee:    deliveryFee,
		Vehicle:        req.Vehicle,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, response.CodeBadRequest, "不支持的注册角色", nil)
		case errors.Is(err, service.ErrDuplicateAccount):
			respondError(c, response.CodeConflict, "邮箱已注册", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, "密码强度不足", nil)
		default:
			respondError(c, response.CodeInternal, "注册失败", err)
		}
		return
	}

	// 注册成功后绑定访问控制角色
	if err := h.AuthzService.SetAccountRole(account.ID, account.Role); err != nil {
		respondError(c, response.CodeInternal, "角色绑定失败", err)
		return
	}

	token, expiresAt, err := h.AccountService.GenerateJWT(account, h.Config.JWT.ExpireHours)
	if err != nil {
		respondError(c, response.CodeInternal, "令牌签发失败", err)
		return
	}

	response.Success(c, gin.H{
		"account": gin.H{
			"id":           account.ID,
			"address":      account.Address,
			"email":        account.Email,
			"display_name": account.DisplayName,
			"role":         account.Role,
		},
		"token":      token,
		"expires_at": expiresAt,
	})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 账户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	requestID := ""
	if v, ok := c.Get("request_id"); ok {
		if id, ok := v.(string); ok {
			requestID = id
		}
	}

	account, token, expiresAt, err := h.AccountService.Login(req.Email, req.Password, c.ClientIP(), c.Request.UserAgent(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "邮箱或密码错误", nil)
		case errors.Is(err, service.ErrAccountSuspended):
			respondError(c, response.CodeForbidden, "账户已被停用", nil)
		default:
			respondError(c, response.CodeInternal, "登录失败", err)
		}
		return
	}

	response.Success(c, gin.H{
		"account": gin.H{
			"id":           account.ID,
			"address":      account.Address,
			"email":        account.Email,
			"display_name": account.DisplayName,
			"role":         account.Role,
		},
		"token":      token,
		"expires_at": expiresAt,
	})
}

// DeactivateMe 账户持有人自行停用账户
// 停用后不能登录或发起新订单，历史订单与凭证保留可查。
func (h *Handler) DeactivateMe(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	if err := h.AccountService.SetStatus(aid, "suspended"); err != nil {
		respondError(c, response.CodeInternal, "账户停用失败", err)
		return
	}
	response.Success(c, gin.H{"status": "suspended"})
}

// GetMe 获取当前账户信息
func (h *Handler) GetMe(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	account, err := h.AccountService.GetByID(aid)
	if err != nil {
		respondError(c, response.CodeInternal, "账户查询失败", err)
		return
	}
	if account == nil {
		respondError(c, response.CodeNotFound, "账户不存在", nil)
		return
	}
	reputation, err := h.ReputationService.GetRecord(aid)
	if err != nil {
		respondError(c, response.CodeInternal, "信誉查询失败", err)
		return
	}
	response.Success(c, gin.H{
		"account":    account,
		"reputation": reputation,
	})
}
