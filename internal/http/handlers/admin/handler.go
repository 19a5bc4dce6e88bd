package admin

import "github.com/forknet/forknet/internal/provider"

// Handler 平台运营端接口处理器，嵌入容器以直接访问各服务
type Handler struct {
	*provider.Container
}

// New 创建运营端处理器
func New(container *provider.Container) *Handler {
	return &Handler{Container: container}
}
