package ledger

import (
	"github.com/ethereum/go-ethereum/common"
)

// 提案字段上限
const (
	MaxDescriptionLen = 1000 // 描述最大长度
	MaxMilestones     = 10   // 里程碑数量上限
	MaxTags           = 5    // 标签数量上限
	MaxTagLen         = 50   // 单个标签最大长度
)

// ProposalStatus 提案状态
type ProposalStatus string

const (
	StatusPending   ProposalStatus = "pending"   // 待审（仅创建时设置）
	StatusApproved  ProposalStatus = "approved"  // 已批准
	StatusRejected  ProposalStatus = "rejected"  // 已驳回
	StatusOngoing   ProposalStatus = "ongoing"   // 执行中
	StatusCompleted ProposalStatus = "completed" // 已完成（终态）
	StatusCancelled ProposalStatus = "cancelled" // 已取消
)

// 状态数字编码，兼容链上合约的 uint8 表示
var statusCodes = map[uint8]ProposalStatus{
	0: StatusPending,
	1: StatusApproved,
	2: StatusRejected,
	3: StatusOngoing,
	4: StatusCompleted,
	5: StatusCancelled,
}

// StatusFromCode 按数字编码解析状态
func StatusFromCode(code uint8) (ProposalStatus, bool) {
	s, ok := statusCodes[code]
	return s, ok
}

// ParseStatus 解析状态名称
func ParseStatus(s string) (ProposalStatus, bool) {
	switch ProposalStatus(s) {
	case StatusPending, StatusApproved, StatusRejected,
		StatusOngoing, StatusCompleted, StatusCancelled:
		return ProposalStatus(s), true
	}
	return "", false
}

// IsValid 是否为合法状态值
func (s ProposalStatus) IsValid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Milestone 提案里程碑
type Milestone struct {
	Description      string `json:"description"`
	BudgetAllocation int64  `json:"budget_allocation"`
	RequiredProof    string `json:"required_proof"`
}

// Proposal 提案记录，账本唯一持有，读接口返回副本
type Proposal struct {
	Id              int64          `json:"id"`
	Proposer        common.Address `json:"proposer"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Budget          int64          `json:"budget"`
	StartBlock      int64          `json:"start_block"`
	EndBlock        int64          `json:"end_block"`
	Milestones      []Milestone    `json:"milestones"`
	Tags            []string       `json:"tags"`
	MetadataHash    *common.Hash   `json:"metadata_hash,omitempty"`
	Status          ProposalStatus `json:"status"`
	SubmissionBlock int64          `json:"submission_block"`
	VotesFor        uint64         `json:"votes_for"`
	VotesAgainst    uint64         `json:"votes_against"`
}

// VoteCounts 赞成/反对计数
type VoteCounts struct {
	For     uint64 `json:"for"`
	Against uint64 `json:"against"`
}

// CreateParams 创建提案入参
type CreateParams struct {
	Title        string
	Description  string
	Budget       int64
	StartBlock   int64
	EndBlock     int64
	Milestones   []Milestone
	Tags         []string
	MetadataHash *common.Hash
}

// clone 深拷贝提案记录
func (p *Proposal) clone() *Proposal {
	cp := *p
	cp.Milestones = append([]Milestone(nil), p.Milestones...)
	cp.Tags = append([]string(nil), p.Tags...)
	if p.MetadataHash != nil {
		h := *p.MetadataHash
		cp.MetadataHash = &h
	}
	return &cp
}
