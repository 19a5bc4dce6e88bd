package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/provider"
	"github.com/forknet/forknet/internal/queue"
	"github.com/forknet/forknet/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDeliveryTimeoutRefund, c.handleDeliveryTimeoutRefund)
}

// handleDeliveryTimeoutRefund 处理配送超时退款任务。订单在延迟任务触发前
// 已送达或已退款时按成功处理，不重试。
func (c *Consumer) handleDeliveryTimeoutRefund(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_timeout_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliveryTimeoutRefundPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_timeout_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_delivery_timeout_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	order, err := c.OrderService.RefundTimedOut(payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_delivery_timeout_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrInvalidState):
			// 订单已不在配送中，说明已送达或已取消
			logger.Debugw("worker_delivery_timeout_skip_state", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrDeliveryNotTimedOut):
			logger.Debugw("worker_delivery_timeout_skip_not_due", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_delivery_timeout_refund_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}

	logger.Infow("worker_delivery_timeout_refunded", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}
