package queue

import (
	"encoding/json"

	"github.com/forknet/forknet/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDeliveryTimeoutRefund 配送超时退款任务
	TaskDeliveryTimeoutRefund = constants.TaskDeliveryTimeoutRefund
)

// DeliveryTimeoutRefundPayload 配送超时退款任务载荷
type DeliveryTimeoutRefundPayload struct {
	OrderID uint `json:"order_id"`
}

// NewDeliveryTimeoutRefundTask 创建配送超时退款任务
func NewDeliveryTimeoutRefundTask(payload DeliveryTimeoutRefundPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryTimeoutRefund, body), nil
}
