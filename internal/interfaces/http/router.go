package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/infrastructure/token"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
)

func (c *Container) setupRoutes(h *allHandlers) {
	r := c.engine
	r.Use(middleware.Recovery(c.log), middleware.RequestLogger(c.log))

	r.GET("/health", c.health)

	api := r.Group("/api", middleware.RequireToken(token.NewVerifier(c.cfg.Server.AdminToken, c.cfg.Server.AdminTokenHash), c.log))

	push := []gin.HandlerFunc{}
	if h.pushRateLimiter != nil {
		push = append(push, h.pushRateLimiter.Limit())
	}
	api.POST("/messages", append(push, h.messageHandler.IngestMessage)...)

	tickets := api.Group("/tickets")
	{
		tickets.GET("", h.ticketHandler.ListTickets)
		tickets.GET("/:number", h.ticketHandler.GetTicket)
		tickets.PUT("/:number/assignee", h.ticketHandler.AssignSupporter)
	}

	parked := api.Group("/parked")
	{
		parked.GET("", h.parkedHandler.ListParked)
		parked.POST("/:id/retry", h.parkedHandler.RetryParked)
	}

	api.GET("/statuses", h.catalogHandler.ListStatuses)
	api.POST("/statuses", h.catalogHandler.CreateStatus)
	api.GET("/queues", h.catalogHandler.ListQueues)
	api.GET("/supporters", h.catalogHandler.ListSupporters)
	api.PUT("/supporters/:email/active", h.catalogHandler.SetSupporterActive)
}

func (c *Container) health(ctx *gin.Context) {
	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
