package http

import (
	"context"
	"fmt"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk"
	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/application/notification"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/cache"
	"github.com/orris-inc/helpdesk/internal/infrastructure/email"
	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/infrastructure/template"
)

func (c *Container) initInfrastructure(ctx context.Context) error {
	if !c.cfg.Redis.Enabled {
		c.log.Infow("redis disabled, using in-process dedup cache and no outcome events")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, c.cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	c.redis = client
	c.log.Infow("redis connected", "addr", c.cfg.Redis.GetAddr())
	return nil
}

func (c *Container) initNotification() error {
	templates, err := template.NewNotificationTemplates(c.log)
	if err != nil {
		return fmt.Errorf("load notification templates: %w", err)
	}
	if dir := c.cfg.Notification.TemplateDir; dir != "" {
		if err := templates.LoadDir(dir); err != nil {
			return fmt.Errorf("load notification templates from %s: %w", dir, err)
		}
	}

	c.dispatcher = notification.NewDispatcher(
		email.NewSMTPSender(c.cfg.SMTP),
		templates,
		c.tx,
		c.repos.emails,
		c.repos.threads,
		c.repos.supporters,
		notification.NewDispatcherConfig(c.cfg.Notification, c.cfg.SMTP),
		c.log.Named("notification"),
	)
	return nil
}

func (c *Container) initIngestion() error {
	cfg := c.cfg.Ingestion
	log := c.log.Named("ingestion")

	router, err := ingestion.NewRouter(c.cfg.Routing)
	if err != nil {
		return fmt.Errorf("routing table: %w", err)
	}
	c.router = router

	var seen ingestion.SeenSet
	switch {
	case c.redis != nil:
		seen = cache.NewRedisSeenSet(c.redis, cfg.DedupTTL())
	case cfg.DedupCacheSize > 0:
		seen = cache.NewMemorySeenSet(cfg.DedupCacheSize)
	}

	updater := ingestion.NewStateUpdater(
		c.tx,
		ingestion.UpdaterRepositories{
			Tickets:     c.repos.tickets,
			Emails:      c.repos.emails,
			Threads:     c.repos.threads,
			Assignments: c.repos.assignments,
			Supporters:  c.repos.supporters,
			Statuses:    c.repos.statuses,
		},
		ticket.NewSequenceNumberGenerator(c.repos.sequences),
		ingestion.NewStatusPolicy(c.cfg.Workflow),
		cfg.AutoAssign,
		log,
	)

	opts := []ingestion.EngineOption{ingestion.WithNotifier(c.dispatcher)}
	if c.redis != nil {
		c.outcomeBus = pubsub.NewRedisOutcomeBus(c.redis, log)
		opts = append(opts, ingestion.WithOutcomeReporter(c.outcomeBus))
	}

	c.ingest = ingestion.NewEngine(
		ingestion.NewNormalizer(cfg.MaxBodyBytes),
		ingestion.NewDedupGuard(seen, c.repos.emails, log),
		ingestion.NewResolver(c.repos.emails, c.repos.tickets, c.repos.queues, c.repos.statuses, cfg.SubjectMatchRequiresSender, log),
		ingestion.NewAllocator(router, c.repos.queues, c.repos.statuses, c.cfg.Workflow, log),
		updater,
		c.repos.parked,
		ingestion.EngineConfig{
			Workers:     cfg.Workers,
			MaxAttempts: cfg.MaxAttempts,
			RetryBase:   cfg.RetryBase(),
			DBTimeout:   cfg.DBTimeout(),
		},
		log,
		opts...,
	)
	return nil
}

func (c *Container) initHelpdesk() {
	c.helpdesk = helpdesk.NewServiceDDD(
		helpdesk.Repositories{
			Tickets:     c.repos.tickets,
			Emails:      c.repos.emails,
			Threads:     c.repos.threads,
			Queues:      c.repos.queues,
			Statuses:    c.repos.statuses,
			Supporters:  c.repos.supporters,
			Assignments: c.repos.assignments,
			Parked:      c.repos.parked,
		},
		c.tx,
		c.ingest,
		c.log.Named("helpdesk"),
	)
}
