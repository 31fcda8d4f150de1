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

type TicketService interface {
	GetTicket(ctx context.Context, number string) (*dto.TicketDetailDTO, error)
	ListTickets(ctx context.Context, query usecases.ListTicketsQuery) (*dto.ListTicketsResult, error)
	AssignSupporter(ctx context.Context, cmd usecases.AssignSupporterCommand) (*dto.TicketDTO, error)
}

type TicketHandler struct {
	service TicketService
	logger  logger.Interface
}

func NewTicketHandler(service TicketService, logger logger.Interface) *TicketHandler {
	return &TicketHandler{service: service, logger: logger}
}

// GetTicket handles GET /api/tickets/:number
func (h *TicketHandler) GetTicket(c *gin.Context) {
	result, err := h.service.GetTicket(c.Request.Context(), c.Param("number"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListTickets handles GET /api/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	query, err := parseListTicketsQuery(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.ListTickets(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Items, result.Total, utils.Pagination{Page: query.Page, PageSize: query.PageSize})
}

// AssignSupporter handles PUT /api/tickets/:number/assignee
func (h *TicketHandler) AssignSupporter(c *gin.Context) {
	var req AssignSupporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for assign supporter", "error", err)
		utils.ErrorResponseWithError(c, bindError(err))
		return
	}

	result, err := h.service.AssignSupporter(c.Request.Context(), usecases.AssignSupporterCommand{
		TicketNumber:   c.Param("number"),
		SupporterEmail: req.SupporterEmail,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Supporter assigned", result)
}
