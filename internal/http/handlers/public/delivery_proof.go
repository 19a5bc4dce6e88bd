package public

import (
	"errors"
	"strings"

	"github.com/forknet/forknet/internal/http/response"
	"github.com/forknet/forknet/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyProofRequest 送达凭证校验请求
type VerifyProofRequest struct {
	ProofNo string `json:"proof_no" binding:"required"`
	Code    string `json:"code"`
}

// VerifyProof 公开校验送达凭证。提供收货码时同时校验收货码指纹。
func (h *Handler) VerifyProof(c *gin.Context) {
	var req VerifyProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	proof, matched, err := h.ProofService.Verify(strings.TrimSpace(req.ProofNo), req.Code)
	if err != nil {
		if errors.Is(err, service.ErrProofNotFound) {
			respondError(c, response.CodeNotFound, "凭证不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "凭证校验失败", err)
		return
	}
	response.Success(c, gin.H{
		"proof":        proof,
		"code_matched": matched,
	})
}

// GetReputation 公开查询账户信誉档案
func (h *Handler) GetReputation(c *gin.Context) {
	accountID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "账户 ID 无效", err)
		return
	}
	record, err := h.ReputationService.GetRecord(accountID)
	if err != nil {
		respondError(c, response.CodeInternal, "信誉查询失败", err)
		return
	}
	response.Success(c, record)
}
