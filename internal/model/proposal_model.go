package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blues/prs/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// ProposalModel 提案持久化模型。内存账本为权威状态，本表是它的落库副本，
// 用于查询与重启恢复。里程碑与标签以 JSON 文本存储。
type ProposalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Proposer    string `json:"proposer" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	// 预算与时间线
	Budget     int64 `json:"budget" gorm:"not null"`
	StartBlock int64 `json:"start_block" gorm:"not null"`
	EndBlock   int64 `json:"end_block" gorm:"not null"`

	// 内容
	Milestones   string `json:"milestones" gorm:"type:text"`
	Tags         string `json:"tags" gorm:"type:text"`
	MetadataHash string `json:"metadata_hash"`
	ContentHash  string `json:"content_hash" gorm:"uniqueIndex;not null"`

	// 生命周期
	Status          string `json:"status" gorm:"not null;index"`
	SubmissionBlock int64  `json:"submission_block" gorm:"not null"`
	VotesFor        int64  `json:"votes_for" gorm:"default:0"`
	VotesAgainst    int64  `json:"votes_against" gorm:"default:0"`
}

// TableName 自定义表名
func (ProposalModel) TableName() string {
	return "proposal"
}

// FromProposal 由账本记录构建持久化模型
func FromProposal(p *ledger.Proposal) (*ProposalModel, error) {
	milestones, err := json.Marshal(p.Milestones)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal milestones: %w", err)
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	m := &ProposalModel{
		Id:              p.Id,
		Proposer:        p.Proposer.Hex(),
		Title:           p.Title,
		Description:     p.Description,
		Budget:          p.Budget,
		StartBlock:      p.StartBlock,
		EndBlock:        p.EndBlock,
		Milestones:      string(milestones),
		Tags:            string(tags),
		ContentHash:     ledger.Fingerprint(p.Title, p.Description, p.Budget, p.Milestones).Hex(),
		Status:          string(p.Status),
		SubmissionBlock: p.SubmissionBlock,
		VotesFor:        int64(p.VotesFor),
		VotesAgainst:    int64(p.VotesAgainst),
	}
	if p.MetadataHash != nil {
		m.MetadataHash = p.MetadataHash.Hex()
	}
	return m, nil
}

// ToProposal 还原为账本记录
func (m *ProposalModel) ToProposal() (*ledger.Proposal, error) {
	var milestones []ledger.Milestone
	if m.Milestones != "" {
		if err := json.Unmarshal([]byte(m.Milestones), &milestones); err != nil {
			return nil, fmt.Errorf("failed to unmarshal milestones for proposal %d: %w", m.Id, err)
		}
	}
	var tags []string
	if m.Tags != "" {
		if err := json.Unmarshal([]byte(m.Tags), &tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for proposal %d: %w", m.Id, err)
		}
	}

	status, ok := ledger.ParseStatus(m.Status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q for proposal %d", m.Status, m.Id)
	}

	p := &ledger.Proposal{
		Id:              m.Id,
		Proposer:        common.HexToAddress(m.Proposer),
		Title:           m.Title,
		Description:     m.Description,
		Budget:          m.Budget,
		StartBlock:      m.StartBlock,
		EndBlock:        m.EndBlock,
		Milestones:      milestones,
		Tags:            tags,
		Status:          status,
		SubmissionBlock: m.SubmissionBlock,
		VotesFor:        uint64(m.VotesFor),
		VotesAgainst:    uint64(m.VotesAgainst),
	}
	if m.MetadataHash != "" {
		h := common.HexToHash(m.MetadataHash)
		p.MetadataHash = &h
	}
	return p, nil
}
