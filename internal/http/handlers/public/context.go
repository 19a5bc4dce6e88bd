package public

import (
	handlershared "github.com/forknet/forknet/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAccountID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "account_id")
}

func getAccountRole(c *gin.Context) string {
	return handlershared.GetContextString(c, "account_role")
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
