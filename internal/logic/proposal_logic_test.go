package logic

import (
	"context"
	"testing"
	"time"

	"github.com/blues/prs/internal/chain"
	"github.com/blues/prs/internal/event"
	"github.com/blues/prs/internal/ledger"
	"github.com/blues/prs/internal/model"
	"github.com/blues/prs/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	testAdmin    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testProposer = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testVoter    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	return db
}

func setupLogic(t *testing.T, db *gorm.DB) *ProposalLogic {
	t.Helper()

	recorder, err := event.NewRecorder(db, 1)
	require.NoError(t, err)
	t.Cleanup(recorder.Release)

	l := NewProposalLogic(db, ledger.New(ledger.NullAddress), chain.NewLocalBlockSource(100), recorder)
	require.NoError(t, l.Load(testAdmin))
	return l
}

func testParams(title string) ledger.CreateParams {
	return ledger.CreateParams{
		Title:       title,
		Description: "Reforestation of the north valley",
		Budget:      1000,
		StartBlock:  100,
		EndBlock:    200,
		Milestones: []ledger.Milestone{
			{Description: "Plant 100 trees", BudgetAllocation: 500, RequiredProof: "GPS coords"},
		},
		Tags: []string{"reforestation"},
	}
}

func TestLoadFreshRegistry(t *testing.T) {
	db := setupDB(t)
	l := setupLogic(t, db)

	assert.Equal(t, int64(1), l.GetNextId())
	assert.Equal(t, testAdmin, l.Admin())

	// 全局状态行已落库
	var state model.RegistryStateModel
	require.NoError(t, db.First(&state, model.RegistryStateId).Error)
	assert.Equal(t, testAdmin.Hex(), state.Admin)
	assert.Equal(t, int64(1), state.NextId)
}

func TestCreatePersistsProposal(t *testing.T) {
	db := setupDB(t)
	l := setupLogic(t, db)

	p, err := l.CreateProposal(context.Background(), testProposer, testParams("p1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Id)
	assert.Equal(t, int64(100), p.SubmissionBlock)

	var row model.ProposalModel
	require.NoError(t, db.First(&row, p.Id).Error)
	assert.Equal(t, "p1", row.Title)
	assert.Equal(t, string(ledger.StatusPending), row.Status)
	assert.Equal(t, testProposer.Hex(), row.Proposer)
	assert.NotEmpty(t, row.ContentHash)

	var state model.RegistryStateModel
	require.NoError(t, db.First(&state, model.RegistryStateId).Error)
	assert.Equal(t, int64(2), state.NextId)
}

func TestRestartRecovery(t *testing.T) {
	db := setupDB(t)
	l := setupLogic(t, db)

	ctx := context.Background()
	p1, err := l.CreateProposal(ctx, testProposer, testParams("p1"))
	require.NoError(t, err)
	_, err = l.CreateProposal(ctx, testProposer, testParams("p2"))
	require.NoError(t, err)

	require.NoError(t, l.AddVote(ctx, testVoter, p1.Id, true))
	assert.Equal(t, 1, l.FlushVotes())

	newAdmin := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	require.NoError(t, l.SetAdmin(ctx, testAdmin, newAdmin))
	require.NoError(t, l.UpdateStatus(ctx, newAdmin, p1.Id, ledger.StatusApproved))

	// 用同一数据库重建账本，模拟进程重启
	restarted := setupLogic(t, db)

	assert.Equal(t, int64(3), restarted.GetNextId())
	assert.Equal(t, newAdmin, restarted.Admin())

	got, ok := restarted.GetProposal(p1.Id)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusApproved, got.Status)
	assert.Equal(t, uint64(1), got.VotesFor)
	assert.Equal(t, int64(100), got.SubmissionBlock)

	// 指纹索引重建后查重依旧生效
	_, err = restarted.CreateProposal(ctx, testVoter, testParams("p1"))
	assert.ErrorIs(t, err, ledger.ErrAlreadyExists)
}

func TestFlushVotes(t *testing.T) {
	db := setupDB(t)
	l := setupLogic(t, db)

	ctx := context.Background()
	p, err := l.CreateProposal(ctx, testProposer, testParams("p1"))
	require.NoError(t, err)

	require.NoError(t, l.AddVote(ctx, testVoter, p.Id, true))
	require.NoError(t, l.AddVote(ctx, testVoter, p.Id, true))
	require.NoError(t, l.AddVote(ctx, testVoter, p.Id, false))

	assert.Equal(t, 1, l.FlushVotes())
	assert.Equal(t, 0, l.FlushVotes()) // 无脏数据时不再写

	var row model.ProposalModel
	require.NoError(t, db.First(&row, p.Id).Error)
	assert.Equal(t, int64(2), row.VotesFor)
	assert.Equal(t, int64(1), row.VotesAgainst)
}

func TestAuditEventsRecorded(t *testing.T) {
	db := setupDB(t)
	l := setupLogic(t, db)

	ctx := context.Background()
	p, err := l.CreateProposal(ctx, testProposer, testParams("p1"))
	require.NoError(t, err)
	require.NoError(t, l.AddVote(ctx, testVoter, p.Id, true))

	// 事件异步落库
	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.EventModel{}).Count(&count)
		return count == 2
	}, 2*time.Second, 10*time.Millisecond)

	var events []model.EventModel
	require.NoError(t, db.Order("id asc").Find(&events).Error)
	assert.Equal(t, model.EventProposalCreated, events[0].EventType)
	assert.Equal(t, model.EventVoteCast, events[1].EventType)
	assert.Equal(t, testVoter.Hex(), events[1].Caller)
}

func TestGetProposalsAndStats(t *testing.T) {
	db := setupDB(t)
	l := setupLogic(t, db)

	ctx := context.Background()
	for _, title := range []string{"p1", "p2", "p3"} {
		_, err := l.CreateProposal(ctx, testProposer, testParams(title))
		require.NoError(t, err)
	}
	require.NoError(t, l.UpdateStatus(ctx, testAdmin, 2, ledger.StatusRejected))

	pending, total := l.GetProposals(ledger.StatusPending, 1, 10)
	assert.Equal(t, int64(2), total)
	assert.Len(t, pending, 2)

	page, total := l.GetProposals("", 2, 2)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].Id)

	stats := l.GetStats()
	assert.Equal(t, int64(3), stats["total_proposals"])
	assert.Equal(t, int64(3000), stats["total_budget"])
	byStatus := stats["by_status"].(map[string]int64)
	assert.Equal(t, int64(2), byStatus[string(ledger.StatusPending)])
	assert.Equal(t, int64(1), byStatus[string(ledger.StatusRejected)])
}
