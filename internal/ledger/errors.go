package ledger

import "errors"

// 账本错误集合（闭集），调用方通过 errors.Is 判断失败原因
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidProposalId = errors.New("invalid proposal id")
	ErrAlreadyExists     = errors.New("proposal already exists")
	ErrInvalidBudget     = errors.New("invalid budget")
	ErrInvalidTimeline   = errors.New("invalid timeline")
	ErrTooManyMilestones = errors.New("too many milestones")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrMetadataTooLong   = errors.New("metadata too long")
	ErrAlreadyFinalized  = errors.New("already finalized")
	ErrInvalidProposer   = errors.New("invalid proposer")
	ErrMaxTagsExceeded   = errors.New("max tags exceeded")
)
