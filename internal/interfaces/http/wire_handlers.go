package http

import (
	"time"

	helpdeskHandlers "github.com/orris-inc/helpdesk/internal/interfaces/http/handlers/helpdesk"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
)

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	ticketHandler  *helpdeskHandlers.TicketHandler
	parkedHandler  *helpdeskHandlers.ParkedHandler
	catalogHandler *helpdeskHandlers.CatalogHandler
	messageHandler *helpdeskHandlers.MessageHandler

	// nil without Redis or with push_rate_limit 0
	pushRateLimiter *middleware.RateLimiter
}

func (c *Container) initHandlers() *allHandlers {
	log := c.log.Named("http")
	h := &allHandlers{
		ticketHandler:  helpdeskHandlers.NewTicketHandler(c.helpdesk, log),
		parkedHandler:  helpdeskHandlers.NewParkedHandler(c.helpdesk, log),
		catalogHandler: helpdeskHandlers.NewCatalogHandler(c.helpdesk, log),
		messageHandler: helpdeskHandlers.NewMessageHandler(c.ingest, c.cfg.Server.MaxMessageBytes, log),
	}
	if c.redis != nil && c.cfg.Server.PushRateLimit > 0 {
		h.pushRateLimiter = middleware.NewRateLimiter(c.redis, "push", c.cfg.Server.PushRateLimit, time.Minute, log)
	}
	return h
}
