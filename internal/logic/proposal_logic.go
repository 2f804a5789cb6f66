package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/prs/internal/chain"
	"github.com/blues/prs/internal/event"
	"github.com/blues/prs/internal/ledger"
	"github.com/blues/prs/internal/logger"
	"github.com/blues/prs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// ProposalLogic 提案业务逻辑：内存账本为权威状态，数据库是它的落库副本。
// 写操作先过账本（含全部校验），成功后同步落库并异步记审计事件；
// 落库失败只记日志，靠重启前的下一次写或计票落库任务追平。
type ProposalLogic struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	blocks   chain.BlockSource
	recorder *event.Recorder
}

// NewProposalLogic 创建提案业务逻辑
func NewProposalLogic(db *gorm.DB, led *ledger.Ledger, blocks chain.BlockSource, recorder *event.Recorder) *ProposalLogic {
	return &ProposalLogic{
		db:       db,
		ledger:   led,
		blocks:   blocks,
		recorder: recorder,
	}
}

// Load 从数据库恢复账本状态。首次启动时写入初始全局状态行。
func (p *ProposalLogic) Load(defaultAdmin common.Address) error {
	var state model.RegistryStateModel
	err := p.db.First(&state, model.RegistryStateId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = model.RegistryStateModel{
			Id:     model.RegistryStateId,
			NextId: 1,
			Admin:  defaultAdmin.Hex(),
		}
		if err := p.db.Create(&state).Error; err != nil {
			return fmt.Errorf("failed to create registry state: %w", err)
		}
		logger.Info("Initialized fresh registry state, admin: %s", state.Admin)
	} else if err != nil {
		return fmt.Errorf("failed to load registry state: %w", err)
	}

	var rows []model.ProposalModel
	if err := p.db.Order("id asc").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load proposals: %w", err)
	}

	st := ledger.State{
		NextId: state.NextId,
		Admin:  common.HexToAddress(state.Admin),
	}
	for i := range rows {
		record, err := rows[i].ToProposal()
		if err != nil {
			return err
		}
		st.Proposals = append(st.Proposals, *record)
	}
	p.ledger.Restore(st)

	logger.Info("Restored %d proposals, next id %d", len(st.Proposals), st.NextId)
	return nil
}

// CreateProposal 创建提案
func (p *ProposalLogic) CreateProposal(ctx context.Context, caller common.Address, params ledger.CreateParams) (*ledger.Proposal, error) {
	currentBlock, err := p.blocks.CurrentBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current block: %w", err)
	}

	id, err := p.ledger.CreateProposal(caller, params, currentBlock)
	if err != nil {
		return nil, err
	}

	record, _ := p.ledger.GetProposal(id)
	p.persistNew(record)
	p.recorder.Record(model.EventProposalCreated, id, caller, currentBlock, record)
	return record, nil
}

// UpdateStatus 变更提案状态（仅 admin）
func (p *ProposalLogic) UpdateStatus(ctx context.Context, caller common.Address, id int64, newStatus ledger.ProposalStatus) error {
	if err := p.ledger.UpdateStatus(caller, id, newStatus); err != nil {
		return err
	}

	if err := p.db.Model(&model.ProposalModel{}).Where("id = ?", id).
		Update("status", string(newStatus)).Error; err != nil {
		logger.Error("Failed to persist status for proposal %d: %v", id, err)
	}
	p.recorder.Record(model.EventStatusChanged, id, caller, p.blockForAudit(ctx),
		map[string]string{"status": string(newStatus)})
	return nil
}

// AddVote 计票。计数只改内存，由落库任务批量追平。
func (p *ProposalLogic) AddVote(ctx context.Context, caller common.Address, id int64, voteFor bool) error {
	if err := p.ledger.AddVote(caller, id, voteFor); err != nil {
		return err
	}

	p.recorder.Record(model.EventVoteCast, id, caller, p.blockForAudit(ctx),
		map[string]bool{"vote_for": voteFor})
	return nil
}

// UpdateMetadata 更新元数据哈希（仅提案人，PENDING 期间）
func (p *ProposalLogic) UpdateMetadata(ctx context.Context, caller common.Address, id int64, newHash common.Hash) error {
	if err := p.ledger.UpdateMetadata(caller, id, newHash); err != nil {
		return err
	}

	if err := p.db.Model(&model.ProposalModel{}).Where("id = ?", id).
		Update("metadata_hash", newHash.Hex()).Error; err != nil {
		logger.Error("Failed to persist metadata hash for proposal %d: %v", id, err)
	}
	p.recorder.Record(model.EventMetadataUpdated, id, caller, p.blockForAudit(ctx),
		map[string]string{"metadata_hash": newHash.Hex()})
	return nil
}

// SetAdmin 移交管理员
func (p *ProposalLogic) SetAdmin(ctx context.Context, caller, newAdmin common.Address) error {
	if err := p.ledger.SetAdmin(caller, newAdmin); err != nil {
		return err
	}

	if err := p.db.Model(&model.RegistryStateModel{}).Where("id = ?", model.RegistryStateId).
		Update("admin", newAdmin.Hex()).Error; err != nil {
		logger.Error("Failed to persist admin change: %v", err)
	}
	p.recorder.Record(model.EventAdminChanged, 0, caller, p.blockForAudit(ctx),
		map[string]string{"new_admin": newAdmin.Hex()})
	return nil
}

// GetProposal 查询提案，不存在返回 (nil, false)，不算错误
func (p *ProposalLogic) GetProposal(id int64) (*ledger.Proposal, bool) {
	return p.ledger.GetProposal(id)
}

// GetProposalByHash 按内容指纹查询提案
func (p *ProposalLogic) GetProposalByHash(hash common.Hash) (*ledger.Proposal, bool) {
	return p.ledger.GetProposalByHash(hash)
}

// GetNextId 当前 id 计数器
func (p *ProposalLogic) GetNextId() int64 {
	return p.ledger.GetNextId()
}

// GetStatus 查询提案状态
func (p *ProposalLogic) GetStatus(id int64) (ledger.ProposalStatus, error) {
	return p.ledger.GetStatus(id)
}

// GetVoteCounts 查询计票
func (p *ProposalLogic) GetVoteCounts(id int64) (ledger.VoteCounts, error) {
	return p.ledger.GetVoteCounts(id)
}

// IsActive 提案是否活跃
func (p *ProposalLogic) IsActive(id int64) bool {
	return p.ledger.IsActive(id)
}

// Admin 当前管理员
func (p *ProposalLogic) Admin() common.Address {
	return p.ledger.Admin()
}

// GetProposals 按状态过滤并分页
func (p *ProposalLogic) GetProposals(status ledger.ProposalStatus, page, pageSize int) ([]ledger.Proposal, int64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return p.ledger.List(status, (page-1)*pageSize, pageSize)
}

// GetStats 账本统计信息
func (p *ProposalLogic) GetStats() map[string]interface{} {
	all, total := p.ledger.List("", 0, 0)

	byStatus := make(map[string]int64)
	var totalBudget int64
	var totalVotes uint64
	for i := range all {
		byStatus[string(all[i].Status)]++
		totalBudget += all[i].Budget
		totalVotes += all[i].VotesFor + all[i].VotesAgainst
	}

	return map[string]interface{}{
		"total_proposals": total,
		"by_status":       byStatus,
		"total_budget":    totalBudget,
		"total_votes":     totalVotes,
		"next_id":         p.ledger.GetNextId(),
	}
}

// FlushVotes 把计票变更批量写回数据库，返回落库条数
func (p *ProposalLogic) FlushVotes() int {
	ids := p.ledger.TakeDirtyVotes()
	flushed := 0
	for _, id := range ids {
		counts, err := p.ledger.GetVoteCounts(id)
		if err != nil {
			continue
		}
		err = p.db.Model(&model.ProposalModel{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"votes_for":     int64(counts.For),
				"votes_against": int64(counts.Against),
			}).Error
		if err != nil {
			logger.Error("Failed to flush votes for proposal %d: %v", id, err)
			continue
		}
		flushed++
	}
	return flushed
}

// persistNew 落库新提案并推进计数器行
func (p *ProposalLogic) persistNew(record *ledger.Proposal) {
	row, err := model.FromProposal(record)
	if err != nil {
		logger.Error("Failed to build proposal row %d: %v", record.Id, err)
		return
	}
	if err := p.db.Create(row).Error; err != nil {
		logger.Error("Failed to persist proposal %d: %v", record.Id, err)
		return
	}
	if err := p.db.Model(&model.RegistryStateModel{}).Where("id = ?", model.RegistryStateId).
		Update("next_id", p.ledger.GetNextId()).Error; err != nil {
		logger.Error("Failed to persist next id: %v", err)
	}
}

// blockForAudit 审计用区块号，取不到时记 0
func (p *ProposalLogic) blockForAudit(ctx context.Context) int64 {
	n, err := p.blocks.CurrentBlock(ctx)
	if err != nil {
		return 0
	}
	return n
}
