// Package http wires the helpdesk together and serves the admin API.
package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk"
	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/application/notification"
	"github.com/orris-inc/helpdesk/internal/infrastructure/config"
	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Container holds the infrastructure, repositories, the ingestion engine,
// the use cases and the HTTP handlers. Commands that only ingest never touch
// the gin engine; it is built on the first call to Handler.
type Container struct {
	db    *gorm.DB
	cfg   *config.Config
	log   logger.Interface
	redis *redis.Client
	tx    *db.TransactionManager

	repos *repositories

	router     *ingestion.Router
	ingest     *ingestion.Engine
	dispatcher *notification.Dispatcher
	outcomeBus *pubsub.RedisOutcomeBus
	helpdesk   *helpdesk.ServiceDDD

	engineOnce sync.Once
	engine     *gin.Engine
}

func NewContainer(ctx context.Context, cfg *config.Config, gdb *gorm.DB, log logger.Interface) (*Container, error) {
	c := &Container{
		db:  gdb,
		cfg: cfg,
		log: log,
		tx:  db.NewTransactionManager(gdb),
	}

	if err := c.initInfrastructure(ctx); err != nil {
		return nil, err
	}
	c.initRepositories()
	if err := c.initNotification(); err != nil {
		c.closeRedis()
		return nil, err
	}
	if err := c.initIngestion(); err != nil {
		c.closeRedis()
		return nil, err
	}
	c.initHelpdesk()

	return c, nil
}

func (c *Container) Ingestion() *ingestion.Engine {
	return c.ingest
}

func (c *Container) Helpdesk() *helpdesk.ServiceDDD {
	return c.helpdesk
}

// Router is the live routing table; Reload swaps it in place.
func (c *Container) Router() *ingestion.Router {
	return c.router
}

// OutcomeBus is nil unless Redis is enabled.
func (c *Container) OutcomeBus() *pubsub.RedisOutcomeBus {
	return c.outcomeBus
}

func (c *Container) NewPoller(source ingestion.MailSource) *ingestion.Poller {
	return ingestion.NewPoller(source, c.ingest, c.log)
}

// Handler returns the admin API.
func (c *Container) Handler() http.Handler {
	c.engineOnce.Do(func() {
		c.engine = gin.New()
		c.setupRoutes(c.initHandlers())
	})
	return c.engine
}

// Shutdown waits for pending notification deliveries, bounded by ctx, and
// closes Redis.
func (c *Container) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.dispatcher.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		c.log.Warnw("shutdown deadline hit with notifications still pending")
		err = ctx.Err()
	}

	c.closeRedis()
	return err
}

func (c *Container) closeRedis() {
	if c.redis == nil {
		return
	}
	if err := c.redis.Close(); err != nil {
		c.log.Warnw("failed to close redis client", "error", err)
	}
	c.redis = nil
}
