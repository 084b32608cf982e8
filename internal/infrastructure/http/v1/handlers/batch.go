package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/batch"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/http/v1/dto"
)

// BatchHandler serves batch job log inspection.
type BatchHandler struct {
	*BaseHandler
	logs batch.JobLogRepository
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, logs batch.JobLogRepository) *BatchHandler {
	return &BatchHandler{
		BaseHandler: base,
		logs:        logs,
	}
}

// List returns recent job runs.
// GET /api/v1/batch-logs
func (h *BatchHandler) List(c *gin.Context) {
	var query dto.JobLogQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}

	var jobType *entity.JobType
	if query.JobType != nil && *query.JobType != "" {
		t := entity.JobType(*query.JobType)
		jobType = &t
	}

	logs, err := h.logs.ListRecent(c.Request.Context(), jobType, query.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(logs))
}
