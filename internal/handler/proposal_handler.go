package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/prs/internal/ledger"
	"github.com/blues/prs/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CallerHeader 宿主侧注入的调用方身份头。治理代币余额校验由宿主完成，此处视为已授权。
const CallerHeader = "X-Caller-Address"

type ProposalHandler struct {
	proposalLogic *logic.ProposalLogic
}

func NewProposalHandler(proposalLogic *logic.ProposalLogic) *ProposalHandler {
	return &ProposalHandler{proposalLogic: proposalLogic}
}

// CreateProposal 创建提案
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	params := ledger.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		StartBlock:  req.StartBlock,
		EndBlock:    req.EndBlock,
		Tags:        req.Tags,
	}
	for _, m := range req.Milestones {
		params.Milestones = append(params.Milestones, ledger.Milestone{
			Description:      m.Description,
			BudgetAllocation: m.BudgetAllocation,
			RequiredProof:    m.RequiredProof,
		})
	}
	if req.MetadataHash != "" {
		hash := common.HexToHash(req.MetadataHash)
		params.MetadataHash = &hash
	}

	proposal, err := h.proposalLogic.CreateProposal(c.Request.Context(), caller, params)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "提案创建成功", proposal)
}

// GetProposals 获取提案列表
func (h *ProposalHandler) GetProposals(c *gin.Context) {
	var status ledger.ProposalStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := ledger.ParseStatus(raw)
		if !ok {
			ErrorResponse(c, http.StatusBadRequest, "无效的状态过滤条件")
			return
		}
		status = parsed
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	proposals, total := h.proposalLogic.GetProposals(status, page, pageSize)

	SuccessResponse(c, http.StatusOK, "", GetProposalsResponse{
		Proposals: proposals,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

// GetProposal 获取提案详情
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id, ok := proposalId(c)
	if !ok {
		return
	}

	proposal, found := h.proposalLogic.GetProposal(id)
	if !found {
		ErrorResponse(c, http.StatusNotFound, "提案不存在")
		return
	}

	SuccessResponse(c, http.StatusOK, "", proposal)
}

// GetProposalByHash 按内容指纹获取提案
func (h *ProposalHandler) GetProposalByHash(c *gin.Context) {
	hash := common.HexToHash(c.Param("hash"))

	proposal, found := h.proposalLogic.GetProposalByHash(hash)
	if !found {
		ErrorResponse(c, http.StatusNotFound, "提案不存在")
		return
	}

	SuccessResponse(c, http.StatusOK, "", proposal)
}

// GetStatus 查询提案状态
func (h *ProposalHandler) GetStatus(c *gin.Context) {
	id, ok := proposalId(c)
	if !ok {
		return
	}

	status, err := h.proposalLogic.GetStatus(id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"status": status})
}

// UpdateStatus 变更提案状态（仅 admin）
func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := proposalId(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var newStatus ledger.ProposalStatus
	if req.Code != nil {
		parsed, valid := ledger.StatusFromCode(*req.Code)
		if !valid {
			ErrorResponse(c, http.StatusBadRequest, "无效的状态编码")
			return
		}
		newStatus = parsed
	} else {
		newStatus = ledger.ProposalStatus(req.Status)
	}

	if err := h.proposalLogic.UpdateStatus(c.Request.Context(), caller, id, newStatus); err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提案状态已更新", gin.H{"status": newStatus})
}

// GetVoteCounts 查询计票
func (h *ProposalHandler) GetVoteCounts(c *gin.Context) {
	id, ok := proposalId(c)
	if !ok {
		return
	}

	counts, err := h.proposalLogic.GetVoteCounts(id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", counts)
}

// AddVote 投票
func (h *ProposalHandler) AddVote(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := proposalId(c)
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.proposalLogic.AddVote(c.Request.Context(), caller, id, *req.VoteFor); err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "投票成功", nil)
}

// UpdateMetadata 更新元数据哈希（仅提案人，PENDING 期间）
func (h *ProposalHandler) UpdateMetadata(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	id, ok := proposalId(c)
	if !ok {
		return
	}

	var req UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	hash := common.HexToHash(req.MetadataHash)
	if err := h.proposalLogic.UpdateMetadata(c.Request.Context(), caller, id, hash); err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "元数据已更新", gin.H{"metadata_hash": hash.Hex()})
}

// IsActive 查询提案是否活跃。不存在的提案视为不活跃，不报错。
func (h *ProposalHandler) IsActive(c *gin.Context) {
	id, ok := proposalId(c)
	if !ok {
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"active": h.proposalLogic.IsActive(id)})
}

// callerAddress 从请求头解析调用方身份
func callerAddress(c *gin.Context) (common.Address, bool) {
	raw := c.GetHeader(CallerHeader)
	if !common.IsHexAddress(raw) {
		ErrorResponse(c, http.StatusBadRequest, "无效的调用方地址")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// proposalId 解析路径中的提案 id
func proposalId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		ErrorResponse(c, http.StatusBadRequest, "无效的提案ID")
		return 0, false
	}
	return id, true
}
