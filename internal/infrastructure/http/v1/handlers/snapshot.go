package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arthurjuliorisa/imaps-sub001/internal/core/entity"
	"github.com/arthurjuliorisa/imaps-sub001/internal/core/types"
	"github.com/arthurjuliorisa/imaps-sub001/internal/domain/snapshot"
	"github.com/arthurjuliorisa/imaps-sub001/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler serves snapshot reads and synchronous calculation triggers.
type SnapshotHandler struct {
	*BaseHandler
	engine    *snapshot.Engine
	snapshots snapshot.SnapshotRepository
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, engine *snapshot.Engine, snapshots snapshot.SnapshotRepository) *SnapshotHandler {
	return &SnapshotHandler{
		BaseHandler: base,
		engine:      engine,
		snapshots:   snapshots,
	}
}

// scopeFromStrings builds an item scope from optional request fields.
func scopeFromStrings(itemType, itemCode *string) snapshot.Scope {
	var scope snapshot.Scope
	if itemType != nil && *itemType != "" {
		t := entity.ItemTypeCode(*itemType)
		scope.ItemType = &t
	}
	if itemCode != nil && *itemCode != "" {
		scope.ItemCode = itemCode
	}
	return scope
}

// List returns snapshot rows for one company and date.
// GET /api/v1/snapshots
func (h *SnapshotHandler) List(c *gin.Context) {
	var query dto.SnapshotQuery
	if !h.BindQuery(c, &query) {
		return
	}
	date, ok := h.ParseDate(c, "date", query.Date)
	if !ok {
		return
	}

	rows, err := h.snapshots.ListByScope(c.Request.Context(), query.CompanyCode, types.DateOf(date),
		scopeFromStrings(query.ItemType, query.ItemCode))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(rows))
}

// Calculate runs one synchronous calculation pass.
// POST /api/v1/snapshots/calculate
func (h *SnapshotHandler) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, "targetDate", req.TargetDate)
	if !ok {
		return
	}

	result, err := h.engine.Calculate(c.Request.Context(), snapshot.CalculateInput{
		CompanyCode: req.CompanyCode,
		TargetDate:  date,
		Scope:       scopeFromStrings(req.ItemType, req.ItemCode),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Cascade runs a synchronous forward recomputation.
// POST /api/v1/snapshots/cascade
func (h *SnapshotHandler) Cascade(c *gin.Context) {
	var req dto.CascadeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	start, ok := h.ParseDate(c, "startDate", req.StartDate)
	if !ok {
		return
	}

	var end *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, ok := h.ParseDate(c, "endDate", *req.EndDate)
		if !ok {
			return
		}
		end = &parsed
	}

	results, err := h.engine.Cascade(c.Request.Context(), snapshot.CascadeInput{
		CompanyCode: req.CompanyCode,
		StartDate:   start,
		EndDate:     end,
		Scope:       scopeFromStrings(req.ItemType, req.ItemCode),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(results))
}
