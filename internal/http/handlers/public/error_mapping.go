package public

import (
	"errors"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderAccessErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrOrderAccessDenied, code: response.CodeForbidden, msg: "无权操作该订单"},
}

var orderTransitionErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidState, code: response.CodeConflict, msg: "订单当前状态不允许该操作"},
}

var walletErrorRules = []mappedHandlerError{
	{target: service.ErrWalletAccountNotFound, code: response.CodeNotFound, msg: "钱包账户不存在"},
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, msg: "金额无效"},
	{target: service.ErrInsufficientFunds, code: response.CodeBadRequest, msg: "钱包余额不足"},
	{target: service.ErrDuplicateReference, code: response.CodeConflict, msg: "重复的交易请求"},
}
