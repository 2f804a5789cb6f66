package handler

import (
	"github.com/blues/prs/internal/ledger"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// MilestoneRequest 里程碑入参
type MilestoneRequest struct {
	Description      string `json:"description"`
	BudgetAllocation int64  `json:"budget_allocation"`
	RequiredProof    string `json:"required_proof"`
}

// CreateProposalRequest 创建提案请求
type CreateProposalRequest struct {
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description"`
	Budget       int64              `json:"budget" binding:"required"`
	StartBlock   int64              `json:"start_block"`
	EndBlock     int64              `json:"end_block"`
	Milestones   []MilestoneRequest `json:"milestones"`
	Tags         []string           `json:"tags"`
	MetadataHash string             `json:"metadata_hash"`
}

// UpdateStatusRequest 状态变更请求，status 为状态名，code 为数字编码（二选一，code 优先）
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Code   *uint8 `json:"code"`
}

// VoteRequest 投票请求
type VoteRequest struct {
	VoteFor *bool `json:"vote_for" binding:"required"`
}

// UpdateMetadataRequest 元数据更新请求
type UpdateMetadataRequest struct {
	MetadataHash string `json:"metadata_hash" binding:"required"`
}

// SetAdminRequest 管理员移交请求
type SetAdminRequest struct {
	NewAdmin string `json:"new_admin" binding:"required"`
}

// GetProposalsResponse 提案列表响应
type GetProposalsResponse struct {
	Proposals  []ledger.Proposal `json:"proposals"`
	Pagination Pagination        `json:"pagination"`
}
