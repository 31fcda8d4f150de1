package helpdesk

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/usecases"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type AssignSupporterRequest struct {
	SupporterEmail string `json:"supporter_email" binding:"required,email"`
}

type CreateStatusRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	BaseStatus  string `json:"base_status" binding:"required"`
	Description string `json:"description" binding:"max=255"`
}

func (r *CreateStatusRequest) ToCommand() usecases.CreateStatusCommand {
	return usecases.CreateStatusCommand{
		Name:        r.Name,
		BaseStatus:  r.BaseStatus,
		Description: r.Description,
	}
}

type SetSupporterActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func parseListTicketsQuery(c *gin.Context) (usecases.ListTicketsQuery, error) {
	p := utils.ParsePagination(c)
	query := usecases.ListTicketsQuery{
		QueuePrefix: c.Query("queue"),
		Status:      c.Query("status"),
		Page:        p.Page,
		PageSize:    p.PageSize,
	}

	if raw := c.Query("supporter_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return query, errors.NewValidationError("invalid supporter_id")
		}
		supporterID := uint(id)
		query.SupporterID = &supporterID
	}
	return query, nil
}

func parseParkedID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("invalid parked message id")
	}
	return uint(id), nil
}

func bindError(err error) error {
	return errors.NewValidationError("invalid request body", err.Error())
}
