package task

import (
	"time"

	"github.com/blues/prs/internal/config"
	"github.com/blues/prs/internal/logger"
	"github.com/blues/prs/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// VoteFlushJob 计票落库任务：投票只改内存账本，由本任务周期性把变更写回数据库
type VoteFlushJob struct {
	proposalLogic *logic.ProposalLogic
	config        *config.Config
}

// NewVoteFlushJob 创建计票落库任务
func NewVoteFlushJob(proposalLogic *logic.ProposalLogic, cfg *config.Config) *VoteFlushJob {
	return &VoteFlushJob{
		proposalLogic: proposalLogic,
		config:        cfg,
	}
}

// GetName 获取任务名称
func (j *VoteFlushJob) GetName() string {
	return "vote_tally_flusher"
}

// GetSchedule 获取调度配置
func (j *VoteFlushJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *VoteFlushJob) Execute() {
	flushed := j.proposalLogic.FlushVotes()
	if flushed > 0 {
		logger.Info("Flushed vote counts for %d proposals", flushed)
	}
}
