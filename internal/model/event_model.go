package model

import (
	"time"
)

// EventModel 审计事件记录：每次成功的写操作落一条，异步写入
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProposalId int64  `json:"proposal_id" gorm:"index"`
	EventType  string `json:"event_type" gorm:"not null;index"`
	Caller     string `json:"caller" gorm:"not null"`
	BlockNum   int64  `json:"block_num"`
	Data       string `json:"data" gorm:"type:text"`
}

// 审计事件类型
const (
	EventProposalCreated = "ProposalCreated"
	EventStatusChanged   = "StatusChanged"
	EventVoteCast        = "VoteCast"
	EventMetadataUpdated = "MetadataUpdated"
	EventAdminChanged    = "AdminChanged"
)

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
