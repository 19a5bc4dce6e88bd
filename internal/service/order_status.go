package service

import "github.com/forknet/forknet/internal/constants"

// allowedTransitions 订单状态机：当前状态 -> 可迁移目标状态
// settled / cancelled / refunded 为终态，不再出现在键中。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusCreated: {
		constants.OrderStatusEscrowed:  true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusEscrowed: {
		constants.OrderStatusPreparing: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPreparing: {
		constants.OrderStatusReadyForPickup: true,
		constants.OrderStatusCancelled:      true,
	},
	constants.OrderStatusReadyForPickup: {
		constants.OrderStatusAssignedDriver: true,
	},
	constants.OrderStatusAssignedDriver: {
		constants.OrderStatusOutForDelivery: true,
	},
	constants.OrderStatusOutForDelivery: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusSettled: true,
	},
}

// canTransition 判断状态迁移是否合法
func canTransition(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// isTerminalStatus 是否为终态
func isTerminalStatus(status string) bool {
	switch status {
	case constants.OrderStatusSettled, constants.OrderStatusCancelled, constants.OrderStatusRefunded:
		return true
	}
	return false
}
