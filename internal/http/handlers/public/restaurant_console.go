package public

import (
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/constants"
	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/models"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

var restaurantConsoleErrorRules = []mappedHandlerError{
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, msg: "餐厅档案不存在"},
	{target: service.ErrMenuItemNotFound, code: response.CodeNotFound, msg: "菜品不存在"},
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, msg: "金额无效"},
}

// GetMyRestaurant 餐厅查询自己的经营档案
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	profile, err := h.RestaurantService.GetProfileByAccountID(aid)
	if err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "餐厅档案查询失败")
		return
	}
	response.Success(c, profile)
}

// UpdateRestaurantRequest 餐厅档案更新请求
type UpdateRestaurantRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Cuisine     *string `json:"cuisine"`
	Address     *string `json:"address"`
	ImageURL    *string `json:"image_url"`
	DeliveryFee *string `json:"delivery_fee"`
	IsOpen      *bool   `json:"is_open"`
}

// UpdateMyRestaurant 餐厅更新经营档案
func (h *Handler) UpdateMyRestaurant(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	input := service.RestaurantProfileInput{
		Name:        req.Name,
		Description: req.Description,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		IsOpen:      req.IsOpen,
	}
	if req.DeliveryFee != nil {
		fee, err := models.NewMoneyFromString(strings.TrimSpace(*req.DeliveryFee))
		if err != nil {
			respondError(c, response.CodeBadRequest, "配送费格式错误", err)
			return
		}
		input.DeliveryFee = &fee
	}

	profile, err := h.RestaurantService.UpdateProfile(aid, input)
	if err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "餐厅档案更新失败")
		return
	}
	response.Success(c, profile)
}

// MenuItemRequest 菜品创建/更新请求
type MenuItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       string   `json:"price" binding:"required"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
	Available   *bool    `json:"available"`
	SortOrder   *int     `json:"sort_order"`
}

func (r *MenuItemRequest) toServiceInput() (service.MenuItemInput, error) {
	price, err := models.NewMoneyFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return service.MenuItemInput{}, err
	}
	return service.MenuItemInput{
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Price:       price,
		ImageURL:    strings.TrimSpace(r.ImageURL),
		Tags:        r.Tags,
		Available:   r.Available,
		SortOrder:   r.SortOrder,
	}, nil
}

// GetMyMenu 餐厅查询自己的全部菜单（含下架菜品）
func (h *Handler) GetMyMenu(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	items, err := h.RestaurantService.ListMenu(aid)
	if err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "菜单查询失败")
		return
	}
	response.Success(c, items)
}

// CreateMenuItem 餐厅新增菜品
func (h *Handler) CreateMenuItem(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "价格格式错误", err)
		return
	}

	item, err := h.RestaurantService.CreateMenuItem(aid, input)
	if err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "菜品创建失败")
		return
	}
	response.Success(c, item)
}

// UpdateMenuItem 餐厅更新菜品
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	itemID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "菜品 ID 无效", err)
		return
	}
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "价格格式错误", err)
		return
	}

	item, err := h.RestaurantService.UpdateMenuItem(aid, itemID, input)
	if err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "菜品更新失败")
		return
	}
	response.Success(c, item)
}

// DeleteMenuItem 餐厅删除菜品
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	itemID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "菜品 ID 无效", err)
		return
	}

	if err := h.RestaurantService.DeleteMenuItem(aid, itemID); err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "菜品删除失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetRestaurantOrders 餐厅查询本店订单
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	profile, err := h.RestaurantService.GetProfileByAccountID(aid)
	if err != nil {
		respondWithMappedError(c, err, restaurantConsoleErrorRules, response.CodeInternal, "餐厅档案查询失败")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:         page,
		PageSize:     pageSize,
		RestaurantID: profile.ID,
		Status:       strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// MarkOrderPreparing 餐厅接单开始备餐
func (h *Handler) MarkOrderPreparing(c *gin.Context) {
	h.restaurantOrderTransition(c, h.OrderService.MarkPreparing)
}

// MarkOrderReady 餐厅出餐完成待取
func (h *Handler) MarkOrderReady(c *gin.Context) {
	h.restaurantOrderTransition(c, h.OrderService.MarkReady)
}

// CancelRestaurantOrder 餐厅取消订单（出餐待取前），已托管资金退回顾客
func (h *Handler) CancelRestaurantOrder(c *gin.Context) {
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

	order, err := h.OrderService.CancelOrder(orderID, aid, constants.RoleRestaurant, strings.TrimSpace(req.Reason))
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules, restaurantConsoleErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "取消订单失败")
		return
	}
	response.Success(c, order)
}

func (h *Handler) restaurantOrderTransition(c *gin.Context, fn func(orderID, restaurantAccountID uint) (*models.Order, error)) {
	aid, ok := getAccountID(c)
	if !ok {
		return
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", err)
		return
	}

	order, err := fn(orderID, aid)
	if err != nil {
		rules := concatMappedHandlerErrors(orderAccessErrorRules, orderTransitionErrorRules, restaurantConsoleErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "订单状态更新失败")
		return
	}
	response.Success(c, order)
}
