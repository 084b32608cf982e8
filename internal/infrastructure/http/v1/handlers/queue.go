package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/apperror"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/id"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/recalc"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/http/v1/dto"
)

// QueueHandler serves recalculation queue operations.
type QueueHandler struct {
	*BaseHandler
	service *recalc.Service
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(base *BaseHandler, service *recalc.Service) *QueueHandler {
	return &QueueHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Enqueue requests a deferred recalculation.
// POST /api/v1/recalc-queue
func (h *QueueHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "recalcDate", req.RecalcDate)
	if !ok {
		return
	}

	in := recalc.EnqueueInput{
		CompanyCode: req.CompanyCode,
		RecalcDate:  date,
		ItemCode:    req.ItemCode,
		Reason:      req.Reason,
		Priority:    req.Priority,
	}
	if req.ItemType != nil && *req.ItemType != "" {
		t := entity.ItemTypeCode(*req.ItemType)
		in.ItemType = &t
	}

	entry, err := h.service.Enqueue(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Accepted(c, entry)
}

// List returns queue entries for inspection.
// GET /api/v1/recalc-queue
func (h *QueueHandler) List(c *gin.Context) {
	var query dto.QueueQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := recalc.QueueFilter{
		CompanyCode: query.CompanyCode,
		Limit:       query.Limit,
	}
	if query.Status != nil && *query.Status != "" {
		status := entity.RecalcStatus(*query.Status)
		filter.Status = &status
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(entries))
}

// Retry re-opens a FAILED entry.
// POST /api/v1/recalc-queue/:id/retry
func (h *QueueHandler) Retry(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entry id").WithDetail("id", c.Param("id")))
		return
	}

	if err := h.service.Retry(c.Request.Context(), entryID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "entry reopened")
}
