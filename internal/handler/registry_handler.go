package handler

import (
	"net/http"

	"github.com/blues/prs/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// RegistryHandler 账本全局状态接口：计数器、管理员、统计
type RegistryHandler struct {
	proposalLogic *logic.ProposalLogic
}

func NewRegistryHandler(proposalLogic *logic.ProposalLogic) *RegistryHandler {
	return &RegistryHandler{proposalLogic: proposalLogic}
}

// GetNextId 当前 id 计数器
func (h *RegistryHandler) GetNextId(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", gin.H{"next_id": h.proposalLogic.GetNextId()})
}

// GetAdmin 当前管理员
func (h *RegistryHandler) GetAdmin(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", gin.H{"admin": h.proposalLogic.Admin().Hex()})
}

// SetAdmin 移交管理员（仅现任 admin）
func (h *RegistryHandler) SetAdmin(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.NewAdmin) {
		ErrorResponse(c, http.StatusBadRequest, "无效的管理员地址")
		return
	}

	newAdmin := common.HexToAddress(req.NewAdmin)
	if err := h.proposalLogic.SetAdmin(c.Request.Context(), caller, newAdmin); err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "管理员已移交", gin.H{"admin": newAdmin.Hex()})
}

// GetStats 账本统计信息
func (h *RegistryHandler) GetStats(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.proposalLogic.GetStats())
}
