package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	bulkapp "github.com/tradecomply/backend/internal/application/bulk"
	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
	"github.com/tradecomply/backend/internal/domain/shared"
	"github.com/tradecomply/backend/internal/infrastructure/logger"
	"github.com/tradecomply/backend/internal/interfaces/http/dto"
	"github.com/tradecomply/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BulkSubmitter stores a bulk work order and dispatches its replay
type BulkSubmitter interface {
	Registry() *bulkapp.Registry
	ProcessFromParameters(ctx context.Context, user *identity.User, params bulk.Params,
		action bulkapp.Action, opts bulk.Options) (*bulk.Submission, error)
}

// BulkActionHandler handles bulk action submissions
type BulkActionHandler struct {
	BaseHandler
	runner BulkSubmitter
	users  identity.UserRepository
}

// NewBulkActionHandler creates a new BulkActionHandler
func NewBulkActionHandler(runner BulkSubmitter, users identity.UserRepository) *BulkActionHandler {
	return &BulkActionHandler{
		runner: runner,
		users:  users,
	}
}

// Submit godoc
// @ID           submitBulkAction
// @Summary      Submit a bulk action
// @Description  Snapshots the target records as a work order and queues it for replay.
// @Description  Targets are either a numeric search_run_id or an ordered pk mapping.
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "Acting user ID"
// @Param        request body dto.SubmitBulkActionRequest true "Bulk action"
// @Success      202 {object} APIResponse[bulk.Submission]
// @Failure      400 {object} ErrorResponse "INVALID_REQUEST or unknown action"
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "TOO_MANY_BULK_OBJECTS"
// @Failure      500 {object} ErrorResponse
// @Router       /bulk/actions [post]
func (h *BulkActionHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := h.actingUser(c)
	if !ok {
		return
	}

	var req dto.SubmitBulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	action, err := h.runner.Registry().Lookup(req.ActionType)
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeUnknownAction), dto.ErrCodeUnknownAction, err.Error())
		return
	}

	sub, err := h.runner.ProcessFromParameters(ctx, user, req.Params(), action, req.Opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.L(ctx).Info("Bulk action submitted",
		zap.String("action_type", sub.ActionType),
		zap.String("snapshot_key", sub.Key),
		zap.Int("key_count", sub.KeyCount),
	)
	h.Accepted(c, sub)
}

// ListActionTypes godoc
// @ID           listBulkActionTypes
// @Summary      List bulk action types
// @Tags         bulk
// @Produce      json
// @Success      200 {object} APIResponse[ActionTypesData]
// @Router       /bulk/action-types [get]
func (h *BulkActionHandler) ListActionTypes(c *gin.Context) {
	h.Success(c, ActionTypesData{ActionTypes: h.runner.Registry().Types()})
}

// actingUser resolves the user named by X-User-ID, answering 401/403 itself
func (h *BulkActionHandler) actingUser(c *gin.Context) (*identity.User, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		h.Unauthorized(c, "X-User-ID header with a user UUID is required")
		return nil, false
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.Unauthorized(c, "Unknown user")
			return nil, false
		}
		h.HandleError(c, err)
		return nil, false
	}
	if !user.IsActive() {
		h.ErrorWithCode(c, dto.ErrCodeForbidden, "User is deactivated")
		return nil, false
	}
	return user, true
}
