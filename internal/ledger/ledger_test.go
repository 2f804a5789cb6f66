package ledger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	proposer = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	voter    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func validParams() CreateParams {
	return CreateParams{
		Title:       "Plant trees in the valley",
		Description: "Reforestation of the north valley",
		Budget:      1000,
		StartBlock:  100,
		EndBlock:    200,
		Milestones: []Milestone{
			{Description: "Plant 100 trees", BudgetAllocation: 500, RequiredProof: "GPS coords"},
		},
		Tags: []string{"reforestation"},
	}
}

func TestCreateProposal(t *testing.T) {
	l := New(admin)

	id, err := l.CreateProposal(proposer, validParams(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	p, ok := l.GetProposal(1)
	require.True(t, ok)
	assert.Equal(t, proposer, p.Proposer)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, int64(42), p.SubmissionBlock)
	assert.Equal(t, uint64(0), p.VotesFor)
	assert.Equal(t, uint64(0), p.VotesAgainst)
	assert.Nil(t, p.MetadataHash)
}

func TestCreateProposalSequentialIds(t *testing.T) {
	l := New(admin)

	for i := 1; i <= 5; i++ {
		params := validParams()
		params.Title = fmt.Sprintf("proposal %d", i)
		id, err := l.CreateProposal(proposer, params, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(i), id)
	}
	assert.Equal(t, int64(6), l.GetNextId())
}

func TestCreateProposalDuplicateFingerprint(t *testing.T) {
	l := New(admin)

	_, err := l.CreateProposal(proposer, validParams(), 10)
	require.NoError(t, err)

	// 内容四元组相同，其他字段不同，仍判重
	dup := validParams()
	dup.StartBlock = 500
	dup.EndBlock = 600
	dup.Tags = []string{"other"}
	_, err = l.CreateProposal(voter, dup, 99)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateProposalValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateParams)
		caller common.Address
		want   error
	}{
		{
			name:   "zero budget",
			mutate: func(p *CreateParams) { p.Budget = 0 },
			caller: proposer,
			want:   ErrInvalidBudget,
		},
		{
			name:   "negative budget",
			mutate: func(p *CreateParams) { p.Budget = -5 },
			caller: proposer,
			want:   ErrInvalidBudget,
		},
		{
			name:   "start equals end",
			mutate: func(p *CreateParams) { p.StartBlock, p.EndBlock = 100, 100 },
			caller: proposer,
			want:   ErrInvalidTimeline,
		},
		{
			name:   "start after end",
			mutate: func(p *CreateParams) { p.StartBlock, p.EndBlock = 300, 200 },
			caller: proposer,
			want:   ErrInvalidTimeline,
		},
		{
			name: "eleven milestones",
			mutate: func(p *CreateParams) {
				p.Milestones = nil
				for i := 0; i < 11; i++ {
					p.Milestones = append(p.Milestones, Milestone{
						Description:      fmt.Sprintf("m%d", i),
						BudgetAllocation: 10,
					})
				}
			},
			caller: proposer,
			want:   ErrTooManyMilestones,
		},
		{
			name: "zero allocation sum",
			mutate: func(p *CreateParams) {
				p.Milestones = []Milestone{{Description: "m", BudgetAllocation: 0}}
			},
			caller: proposer,
			want:   ErrTooManyMilestones,
		},
		{
			name:   "description too long",
			mutate: func(p *CreateParams) { p.Description = strings.Repeat("x", 1001) },
			caller: proposer,
			want:   ErrMetadataTooLong,
		},
		{
			name:   "six tags",
			mutate: func(p *CreateParams) { p.Tags = []string{"a", "b", "c", "d", "e", "f"} },
			caller: proposer,
			want:   ErrMaxTagsExceeded,
		},
		{
			name:   "tag too long",
			mutate: func(p *CreateParams) { p.Tags = []string{strings.Repeat("t", 51)} },
			caller: proposer,
			want:   ErrMaxTagsExceeded,
		},
		{
			name:   "null proposer",
			mutate: func(p *CreateParams) {},
			caller: NullAddress,
			want:   ErrInvalidProposer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(admin)
			params := validParams()
			tt.mutate(&params)
			_, err := l.CreateProposal(tt.caller, params, 10)
			assert.ErrorIs(t, err, tt.want)
			// 校验失败不得留下任何状态
			assert.Equal(t, int64(1), l.GetNextId())
		})
	}
}

func TestCreateProposalBoundaries(t *testing.T) {
	l := New(admin)

	// 恰好 10 个里程碑、5 个长度 50 的标签、1000 字符描述均合法
	params := validParams()
	params.Milestones = nil
	for i := 0; i < 10; i++ {
		params.Milestones = append(params.Milestones, Milestone{
			Description:      fmt.Sprintf("m%d", i),
			BudgetAllocation: 100,
		})
	}
	params.Description = strings.Repeat("d", 1000)
	params.Tags = nil
	for i := 0; i < 5; i++ {
		params.Tags = append(params.Tags, strings.Repeat(string(rune('a'+i)), 50))
	}

	id, err := l.CreateProposal(proposer, params, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestValidationOrder(t *testing.T) {
	l := New(admin)

	// 预算错误先于时间线错误暴露
	params := validParams()
	params.Budget = 0
	params.StartBlock, params.EndBlock = 200, 100
	_, err := l.CreateProposal(proposer, params, 10)
	assert.ErrorIs(t, err, ErrInvalidBudget)

	// 指纹查重先于一切字段校验
	_, err = l.CreateProposal(proposer, validParams(), 10)
	require.NoError(t, err)
	dup := validParams()
	_, err = l.CreateProposal(NullAddress, dup, 10)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateStatus(t *testing.T) {
	l := New(admin)
	id, err := l.CreateProposal(proposer, validParams(), 10)
	require.NoError(t, err)

	// 非 admin 一律拒绝
	err = l.UpdateStatus(proposer, id, StatusApproved)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 不存在的提案
	err = l.UpdateStatus(admin, 999, StatusApproved)
	assert.ErrorIs(t, err, ErrInvalidProposalId)

	// PENDING 不是合法目标
	err = l.UpdateStatus(admin, id, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// 未知状态
	err = l.UpdateStatus(admin, id, ProposalStatus("frozen"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	err = l.UpdateStatus(admin, id, StatusApproved)
	require.NoError(t, err)
	st, err := l.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, st)
}

func TestUpdateStatusPermissiveGraph(t *testing.T) {
	l := New(admin)
	id, _ := l.CreateProposal(proposer, validParams(), 10)

	// 非终态之间任意迁移，含自迁移
	for _, target := range []ProposalStatus{
		StatusApproved, StatusRejected, StatusRejected, StatusOngoing,
		StatusCancelled, StatusApproved,
	} {
		require.NoError(t, l.UpdateStatus(admin, id, target))
	}

	// COMPLETED 为终态，即便目标仍是 COMPLETED 也拒绝
	require.NoError(t, l.UpdateStatus(admin, id, StatusCompleted))
	err := l.UpdateStatus(admin, id, StatusCompleted)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	err = l.UpdateStatus(admin, id, StatusApproved)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestAddVote(t *testing.T) {
	l := New(admin)
	id, _ := l.CreateProposal(proposer, validParams(), 10)

	// 提案人不能给自己投票
	err := l.AddVote(proposer, id, true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 不存在的提案
	err = l.AddVote(voter, 999, true)
	assert.ErrorIs(t, err, ErrInvalidProposalId)

	require.NoError(t, l.AddVote(voter, id, true))
	require.NoError(t, l.AddVote(voter, id, true)) // 无重复投票限制
	require.NoError(t, l.AddVote(voter, id, false))

	counts, err := l.GetVoteCounts(id)
	require.NoError(t, err)
	assert.Equal(t, VoteCounts{For: 2, Against: 1}, counts)

	// 状态离开 PENDING 即停止计票
	require.NoError(t, l.UpdateStatus(admin, id, StatusApproved))
	err = l.AddVote(voter, id, true)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateMetadata(t *testing.T) {
	l := New(admin)
	id, _ := l.CreateProposal(proposer, validParams(), 10)
	hash := common.HexToHash("0x1234")

	// 仅提案人本人可改
	err := l.UpdateMetadata(voter, id, hash)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = l.UpdateMetadata(proposer, 999, hash)
	assert.ErrorIs(t, err, ErrInvalidProposalId)

	require.NoError(t, l.UpdateMetadata(proposer, id, hash))
	p, ok := l.GetProposal(id)
	require.True(t, ok)
	require.NotNil(t, p.MetadataHash)
	assert.Equal(t, hash, *p.MetadataHash)

	// 状态离开 PENDING 后不可再改
	require.NoError(t, l.UpdateStatus(admin, id, StatusApproved))
	err = l.UpdateMetadata(proposer, id, hash)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestSetAdmin(t *testing.T) {
	l := New(admin)
	newAdmin := common.HexToAddress("0x00000000000000000000000000000000000000dd")

	err := l.SetAdmin(voter, newAdmin)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, l.SetAdmin(admin, newAdmin))
	assert.Equal(t, newAdmin, l.Admin())

	// 旧 admin 已失权
	err = l.SetAdmin(admin, admin)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestReads(t *testing.T) {
	l := New(admin)

	// 空账本查询不是错误
	_, ok := l.GetProposal(999)
	assert.False(t, ok)
	_, ok = l.GetProposalByHash(common.HexToHash("0xdead"))
	assert.False(t, ok)
	assert.False(t, l.IsActive(999))

	_, err := l.GetStatus(999)
	assert.ErrorIs(t, err, ErrInvalidProposalId)
	_, err = l.GetVoteCounts(999)
	assert.ErrorIs(t, err, ErrInvalidProposalId)

	id, _ := l.CreateProposal(proposer, validParams(), 10)

	fp := Fingerprint("Plant trees in the valley", "Reforestation of the north valley", 1000,
		[]Milestone{{Description: "Plant 100 trees", BudgetAllocation: 500, RequiredProof: "GPS coords"}})
	p, ok := l.GetProposalByHash(fp)
	require.True(t, ok)
	assert.Equal(t, id, p.Id)
}

func TestIsActiveByStatus(t *testing.T) {
	active := map[ProposalStatus]bool{
		StatusPending:   true,
		StatusApproved:  true,
		StatusOngoing:   true,
		StatusRejected:  false,
		StatusCompleted: false,
		StatusCancelled: false,
	}

	for status, want := range active {
		l := New(admin)
		id, err := l.CreateProposal(proposer, validParams(), 10)
		require.NoError(t, err)
		if status != StatusPending {
			require.NoError(t, l.UpdateStatus(admin, id, status))
		}
		assert.Equal(t, want, l.IsActive(id), "status %s", status)
	}
}

func TestListAndDirtyVotes(t *testing.T) {
	l := New(admin)
	for i := 0; i < 4; i++ {
		params := validParams()
		params.Title = fmt.Sprintf("p%d", i)
		_, err := l.CreateProposal(proposer, params, 10)
		require.NoError(t, err)
	}
	require.NoError(t, l.UpdateStatus(admin, 2, StatusApproved))

	all, total := l.List("", 0, 10)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	pending, total := l.List(StatusPending, 0, 10)
	assert.Equal(t, int64(3), total)
	assert.Len(t, pending, 3)

	page, total := l.List("", 2, 1)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].Id)

	assert.Empty(t, l.TakeDirtyVotes())
	require.NoError(t, l.AddVote(voter, 1, true))
	require.NoError(t, l.AddVote(voter, 3, false))
	dirty := l.TakeDirtyVotes()
	assert.ElementsMatch(t, []int64{1, 3}, dirty)
	assert.Empty(t, l.TakeDirtyVotes())
}

func TestSnapshotRestore(t *testing.T) {
	l := New(admin)
	id, _ := l.CreateProposal(proposer, validParams(), 42)
	require.NoError(t, l.AddVote(voter, id, true))
	require.NoError(t, l.UpdateStatus(admin, id, StatusApproved))

	st := l.Snapshot()

	restored := New(NullAddress)
	restored.Restore(st)

	assert.Equal(t, int64(2), restored.GetNextId())
	assert.Equal(t, admin, restored.Admin())

	p, ok := restored.GetProposal(id)
	require.True(t, ok)
	assert.Equal(t, StatusApproved, p.Status)
	assert.Equal(t, uint64(1), p.VotesFor)

	// 指纹索引重建后查重依旧生效
	_, err := restored.CreateProposal(voter, validParams(), 50)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestProposalImmutabilityThroughReads(t *testing.T) {
	l := New(admin)
	id, _ := l.CreateProposal(proposer, validParams(), 10)

	p, _ := l.GetProposal(id)
	p.Tags[0] = "mutated"
	p.Milestones[0].BudgetAllocation = 0
	p.Title = "mutated"

	again, _ := l.GetProposal(id)
	assert.Equal(t, "reforestation", again.Tags[0])
	assert.Equal(t, int64(500), again.Milestones[0].BudgetAllocation)
	assert.Equal(t, "Plant trees in the valley", again.Title)
}

func TestStatusCodes(t *testing.T) {
	s, ok := StatusFromCode(1)
	require.True(t, ok)
	assert.Equal(t, StatusApproved, s)

	_, ok = StatusFromCode(9)
	assert.False(t, ok)
}
