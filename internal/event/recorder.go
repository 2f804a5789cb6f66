// Package event 提供审计事件记录器：每次成功的写操作生成一条事件，
// 通过协程池异步落库，不阻塞请求路径。落库失败只记日志，不影响账本状态。
package event

import (
	"encoding/json"

	"github.com/blues/prs/internal/logger"
	"github.com/blues/prs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Recorder 审计事件记录器
type Recorder struct {
	db   *gorm.DB
	pool *ants.Pool
}

// NewRecorder 创建记录器，workers 为落库协程数
func NewRecorder(db *gorm.DB, workers int) (*Recorder, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Recorder{db: db, pool: pool}, nil
}

// Record 记录一条审计事件，payload 序列化为 JSON 存入 Data
func (r *Recorder) Record(eventType string, proposalId int64, caller common.Address, blockNum int64, payload interface{}) {
	var data string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Failed to marshal audit payload for %s: %v", eventType, err)
		} else {
			data = string(raw)
		}
	}

	record := &model.EventModel{
		ProposalId: proposalId,
		EventType:  eventType,
		Caller:     caller.Hex(),
		BlockNum:   blockNum,
		Data:       data,
	}

	err := r.pool.Submit(func() {
		if err := r.db.Create(record).Error; err != nil {
			logger.Error("Failed to persist audit event %s for proposal %d: %v",
				eventType, proposalId, err)
		}
	})
	if err != nil {
		logger.Error("Failed to submit audit event to pool: %v", err)
	}
}

// Release 关闭协程池
func (r *Recorder) Release() {
	r.pool.Release()
}
