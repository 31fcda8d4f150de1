package helpdesk

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/application/helpdesk/usecases"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type ParkedService interface {
	ListParked(ctx context.Context, query usecases.ListParkedQuery) (*dto.ListParkedResult, error)
	RetryParked(ctx context.Context, parkedID uint) (*dto.RetryParkedResult, error)
}

type ParkedHandler struct {
	service ParkedService
	logger  logger.Interface
}

func NewParkedHandler(service ParkedService, logger logger.Interface) *ParkedHandler {
	return &ParkedHandler{service: service, logger: logger}
}

// ListParked handles GET /api/parked
func (h *ParkedHandler) ListParked(c *gin.Context) {
	p := utils.ParsePagination(c)
	result, err := h.service.ListParked(c.Request.Context(), usecases.ListParkedQuery{
		IncludeResolved: c.Query("include_resolved") == "true",
		Page:            p.Page,
		PageSize:        p.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Items, result.Total, p)
}

// RetryParked handles POST /api/parked/:id/retry
func (h *ParkedHandler) RetryParked(c *gin.Context) {
	id, err := parseParkedID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.RetryParked(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if !result.Resolved {
		h.logger.Infow("parked message retry did not resolve", "parked_id", id, "reason", result.Reason)
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}
