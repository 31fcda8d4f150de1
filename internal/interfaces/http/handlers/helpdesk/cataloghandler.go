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

type CatalogService interface {
	CreateStatus(ctx context.Context, cmd usecases.CreateStatusCommand) (*dto.StatusDTO, error)
	ListStatuses(ctx context.Context) ([]dto.StatusDTO, error)
	ListQueues(ctx context.Context) ([]dto.QueueDTO, error)
	ListSupporters(ctx context.Context) ([]dto.SupporterDTO, error)
	SetSupporterActive(ctx context.Context, email string, active bool) (*dto.SupporterDTO, error)
}

// CatalogHandler serves the lookup tables: statuses, queues and supporters.
type CatalogHandler struct {
	service CatalogService
	logger  logger.Interface
}

func NewCatalogHandler(service CatalogService, logger logger.Interface) *CatalogHandler {
	return &CatalogHandler{service: service, logger: logger}
}

// ListStatuses handles GET /api/statuses
func (h *CatalogHandler) ListStatuses(c *gin.Context) {
	result, err := h.service.ListStatuses(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// CreateStatus handles POST /api/statuses
func (h *CatalogHandler) CreateStatus(c *gin.Context) {
	var req CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create status", "error", err)
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	result, err := h.service.CreateStatus(c.Request.Context(), req.ToCommand())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Status created", result)
}

// ListQueues handles GET /api/queues
func (h *CatalogHandler) ListQueues(c *gin.Context) {
	result, err := h.service.ListQueues(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListSupporters handles GET /api/supporters
func (h *CatalogHandler) ListSupporters(c *gin.Context) {
	result, err := h.service.ListSupporters(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// SetSupporterActive handles PUT /api/supporters/:email/active
func (h *CatalogHandler) SetSupporterActive(c *gin.Context) {
	var req SetSupporterActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	result, err := h.service.SetSupporterActive(c.Request.Context(), c.Param("email"), *req.Active)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}
