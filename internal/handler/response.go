package handler

import (
	"errors"
	"net/http"

	"github.com/blues/prs/internal/ledger"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LedgerErrorResponse 把账本错误映射为 HTTP 状态码
func LedgerErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusCodeFor(err), err.Error())
}

func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidProposalId):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidBudget),
		errors.Is(err, ledger.ErrInvalidTimeline),
		errors.Is(err, ledger.ErrTooManyMilestones),
		errors.Is(err, ledger.ErrInvalidStatus),
		errors.Is(err, ledger.ErrMetadataTooLong),
		errors.Is(err, ledger.ErrInvalidProposer),
		errors.Is(err, ledger.ErrMaxTagsExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
