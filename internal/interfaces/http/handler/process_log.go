package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/interfaces/http/dto"
)

// ProcessLogReader is the read side of bulk runs
type ProcessLogReader interface {
	Get(ctx context.Context, id uuid.UUID) (*bulk.ProcessLog, error)
	List(ctx context.Context, filter bulk.ProcessLogFilter, page, pageSize int) (*bulk.ProcessLogListResult, error)
}

// ProcessLogHandler reports bulk run outcomes
type ProcessLogHandler struct {
	BaseHandler
	logs ProcessLogReader
}

// NewProcessLogHandler creates a new ProcessLogHandler
func NewProcessLogHandler(logs ProcessLogReader) *ProcessLogHandler {
	return &ProcessLogHandler{logs: logs}
}

// List godoc
// @ID           listBulkProcessLogs
// @Summary      List bulk process logs
// @Description  Newest first. Change records are only included by the detail endpoint.
// @Tags         bulk
// @Produce      json
// @Param        action_type query string false "Action type"
// @Param        user_id query string false "Submitting user ID" format(uuid)
// @Param        completed query bool false "Only completed (true) or open (false) runs"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]dto.ProcessLogSummary]
// @Failure      400 {object} ErrorResponse
// @Router       /bulk/process-logs [get]
func (h *ProcessLogHandler) List(c *gin.Context) {
	var req dto.ListProcessLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.Normalize()

	result, err := h.logs.List(c.Request.Context(), req.Filter(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.ToProcessLogSummaries(result.Items), result.TotalCount, result.Page, result.PageSize)
}

// Get godoc
// @ID           getBulkProcessLog
// @Summary      Get a bulk process log
// @Description  Includes change records ordered by sequence number and outcome counts.
// @Tags         bulk
// @Produce      json
// @Param        id path string true "Process log ID" format(uuid)
// @Success      200 {object} APIResponse[dto.ProcessLogDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /bulk/process-logs/{id} [get]
func (h *ProcessLogHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	log, err := h.logs.Get(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToProcessLogDetail(log))
}
