package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/repository"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// ListRestaurants 公开查询餐厅目录
func (h *Handler) ListRestaurants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	onlyOpen := c.DefaultQuery("only_open", "true") != "false"
	restaurants, total, err := h.RestaurantService.ListRestaurants(repository.RestaurantListFilter{
		Page:     page,
		PageSize: pageSize,
		Cuisine:  strings.TrimSpace(c.Query("cuisine")),
		Search:   strings.TrimSpace(c.Query("search")),
		OnlyOpen: onlyOpen,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "餐厅查询失败", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, restaurants, pagination)
}

// GetRestaurant 公开查询餐厅详情与在售菜单
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "餐厅 ID 无效", err)
		return
	}
	restaurant, err := h.RestaurantService.GetRestaurant(id)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			respondError(c, response.CodeNotFound, "餐厅不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "餐厅查询失败", err)
		return
	}
	response.Success(c, restaurant)
}
