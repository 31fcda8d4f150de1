package usecases

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
)

type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Ingester re-runs a message through the ingestion pipeline.
type Ingester interface {
	Normalize(raw ingestion.RawMessage) (*ingestion.InboundMessage, error)
	Ingest(ctx context.Context, sourceUID string, msg *ingestion.InboundMessage) ingestion.Outcome
}
