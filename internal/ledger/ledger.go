// Package ledger 实现提案账本核心：按 id 与内容指纹双索引的提案登记，
// 加上受限的状态生命周期与简单计票。所有写操作先完成全部校验再落一次状态变更，
// 由单一互斥锁保证全序（单写者语义）。调用方身份与当前区块号由宿主按次调用传入，
// 账本对其不做二次鉴权。
package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NullAddress 保留的空身份（燃烧地址），禁止作为提案人
var NullAddress = common.Address{}

// Ledger 提案账本
type Ledger struct {
	mu        sync.Mutex
	proposals map[int64]*Proposal
	byHash    map[common.Hash]int64
	nextId    int64
	admin     common.Address
	dirty     map[int64]struct{} // 计票有变更、待落库的提案
}

// New 创建账本，admin 为部署方身份，id 从 1 开始分配
func New(admin common.Address) *Ledger {
	return &Ledger{
		proposals: make(map[int64]*Proposal),
		byHash:    make(map[common.Hash]int64),
		nextId:    1,
		admin:     admin,
		dirty:     make(map[int64]struct{}),
	}
}

// CreateProposal 创建提案。校验按固定顺序短路，全部通过后才写入两个索引并递增计数器。
func (l *Ledger) CreateProposal(caller common.Address, p CreateParams, currentBlock int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 1. 内容指纹查重
	fp := Fingerprint(p.Title, p.Description, p.Budget, p.Milestones)
	if _, ok := l.byHash[fp]; ok {
		return 0, ErrAlreadyExists
	}

	// 2. 预算必须为正
	if p.Budget <= 0 {
		return 0, ErrInvalidBudget
	}

	// 3. 起止区块
	if p.StartBlock >= p.EndBlock {
		return 0, ErrInvalidTimeline
	}

	// 4. 里程碑数量与分配总额
	if len(p.Milestones) > MaxMilestones {
		return 0, ErrTooManyMilestones
	}
	var allocated int64
	for _, m := range p.Milestones {
		allocated += m.BudgetAllocation
	}
	if allocated <= 0 {
		return 0, ErrTooManyMilestones
	}

	// 5. 描述长度
	if len(p.Description) > MaxDescriptionLen {
		return 0, ErrMetadataTooLong
	}

	// 6. 标签数量与长度
	if len(p.Tags) > MaxTags {
		return 0, ErrMaxTagsExceeded
	}
	for _, tag := range p.Tags {
		if len(tag) > MaxTagLen {
			return 0, ErrMaxTagsExceeded
		}
	}

	// 7. 提案人不能是空身份
	if caller == NullAddress {
		return 0, ErrInvalidProposer
	}

	id := l.nextId
	record := &Proposal{
		Id:              id,
		Proposer:        caller,
		Title:           p.Title,
		Description:     p.Description,
		Budget:          p.Budget,
		StartBlock:      p.StartBlock,
		EndBlock:        p.EndBlock,
		Milestones:      append([]Milestone(nil), p.Milestones...),
		Tags:            append([]string(nil), p.Tags...),
		Status:          StatusPending,
		SubmissionBlock: currentBlock,
	}
	if p.MetadataHash != nil {
		h := *p.MetadataHash
		record.MetadataHash = &h
	}

	l.proposals[id] = record
	l.byHash[fp] = id
	l.nextId++
	return id, nil
}

// UpdateStatus 变更提案状态，仅 admin 可调用。COMPLETED 为终态，任何目标（包括
// COMPLETED 自身）都不再接受；PENDING 不是合法目标，状态一旦离开 PENDING 没有回头路。
// 其余非终态之间允许任意迁移，含自迁移。
func (l *Ledger) UpdateStatus(caller common.Address, id int64, newStatus ProposalStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrUnauthorized
	}
	p, ok := l.proposals[id]
	if !ok {
		return ErrInvalidProposalId
	}
	if p.Status == StatusCompleted {
		return ErrAlreadyFinalized
	}
	if !newStatus.IsValid() || newStatus == StatusPending {
		return ErrInvalidStatus
	}

	p.Status = newStatus
	return nil
}

// AddVote 计票。仅 PENDING 状态可投，提案人不能给自己投票。
// 不做重复投票限制：同一身份可多次计票（未来治理组件需自带投票人账本）。
func (l *Ledger) AddVote(caller common.Address, id int64, voteFor bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[id]
	if !ok {
		return ErrInvalidProposalId
	}
	if p.Status != StatusPending {
		return ErrInvalidStatus
	}
	if caller == p.Proposer {
		return ErrUnauthorized
	}

	if voteFor {
		p.VotesFor++
	} else {
		p.VotesAgainst++
	}
	l.dirty[id] = struct{}{}
	return nil
}

// UpdateMetadata 更新元数据哈希，仅提案人本人在 PENDING 期间可改
func (l *Ledger) UpdateMetadata(caller common.Address, id int64, newHash common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[id]
	if !ok {
		return ErrInvalidProposalId
	}
	if caller != p.Proposer {
		return ErrUnauthorized
	}
	if p.Status != StatusPending {
		return ErrAlreadyFinalized
	}

	p.MetadataHash = &newHash
	return nil
}

// SetAdmin 移交管理员身份，仅现任 admin 可调用
func (l *Ledger) SetAdmin(caller, newAdmin common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrUnauthorized
	}
	l.admin = newAdmin
	return nil
}

// GetProposal 查询提案，不存在不算错误
func (l *Ledger) GetProposal(id int64) (*Proposal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// GetProposalByHash 按内容指纹查询提案
func (l *Ledger) GetProposalByHash(hash common.Hash) (*Proposal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.byHash[hash]
	if !ok {
		return nil, false
	}
	p, ok := l.proposals[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// GetNextId 当前计数器值
func (l *Ledger) GetNextId() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextId
}

// GetStatus 查询提案状态
func (l *Ledger) GetStatus(id int64) (ProposalStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[id]
	if !ok {
		return "", ErrInvalidProposalId
	}
	return p.Status, nil
}

// GetVoteCounts 查询计票
func (l *Ledger) GetVoteCounts(id int64) (VoteCounts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[id]
	if !ok {
		return VoteCounts{}, ErrInvalidProposalId
	}
	return VoteCounts{For: p.VotesFor, Against: p.VotesAgainst}, nil
}

// IsActive 提案是否处于活跃状态（PENDING/APPROVED/ONGOING）。不存在视为不活跃。
func (l *Ledger) IsActive(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[id]
	if !ok {
		return false
	}
	switch p.Status {
	case StatusPending, StatusApproved, StatusOngoing:
		return true
	}
	return false
}

// Admin 当前管理员身份
func (l *Ledger) Admin() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admin
}

// List 按状态过滤并分页，status 为空表示不过滤。按 id 升序返回。
func (l *Ledger) List(status ProposalStatus, offset, limit int) ([]Proposal, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []*Proposal
	for id := int64(1); id < l.nextId; id++ {
		p, ok := l.proposals[id]
		if !ok {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		matched = append(matched, p)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	out := make([]Proposal, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, *p.clone())
	}
	return out, total
}

// TakeDirtyVotes 取走计票有变更的提案 id 集合并清空标记，供落库任务使用
func (l *Ledger) TakeDirtyVotes() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.dirty) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(l.dirty))
	for id := range l.dirty {
		ids = append(ids, id)
	}
	l.dirty = make(map[int64]struct{})
	return ids
}

// State 账本完整状态快照，用于持久化与重启恢复
type State struct {
	Proposals []Proposal
	NextId    int64
	Admin     common.Address
}

// Snapshot 导出账本状态
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := State{NextId: l.nextId, Admin: l.admin}
	for id := int64(1); id < l.nextId; id++ {
		if p, ok := l.proposals[id]; ok {
			st.Proposals = append(st.Proposals, *p.clone())
		}
	}
	return st
}

// Restore 从快照重建账本，指纹索引按内容重新计算
func (l *Ledger) Restore(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.proposals = make(map[int64]*Proposal, len(st.Proposals))
	l.byHash = make(map[common.Hash]int64, len(st.Proposals))
	l.dirty = make(map[int64]struct{})
	for i := range st.Proposals {
		p := st.Proposals[i].clone()
		l.proposals[p.Id] = p
		fp := Fingerprint(p.Title, p.Description, p.Budget, p.Milestones)
		l.byHash[fp] = p.Id
	}
	l.nextId = st.NextId
	l.admin = st.Admin
}
