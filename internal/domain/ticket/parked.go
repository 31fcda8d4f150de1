package ticket

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ParkedMessage holds a raw message that could not be normalized until an
// operator retries or discards it. The same bytes are parked at most once,
// keyed by their digest.
type ParkedMessage struct {
	id        uint
	sourceUID string
	raw       []byte
	digest    string
	reason    string
	parkedAt  time.Time
	retriedAt *time.Time
	resolved  bool
}

func NewParkedMessage(sourceUID string, raw []byte, reason string, now time.Time) (*ParkedMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("raw message is required")
	}
	if reason == "" {
		return nil, fmt.Errorf("park reason is required")
	}
	return &ParkedMessage{
		sourceUID: sourceUID,
		raw:       raw,
		digest:    RawDigest(raw),
		reason:    reason,
		parkedAt:  now,
	}, nil
}

// RawDigest is the hex SHA-256 of raw message bytes.
func RawDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func ReconstructParkedMessage(
	id uint,
	sourceUID string,
	raw []byte,
	digest string,
	reason string,
	parkedAt time.Time,
	retriedAt *time.Time,
	resolved bool,
) *ParkedMessage {
	return &ParkedMessage{
		id:        id,
		sourceUID: sourceUID,
		raw:       raw,
		digest:    digest,
		reason:    reason,
		parkedAt:  parkedAt,
		retriedAt: retriedAt,
		resolved:  resolved,
	}
}

func (p *ParkedMessage) ID() uint {
	return p.id
}

func (p *ParkedMessage) SourceUID() string {
	return p.sourceUID
}

func (p *ParkedMessage) Raw() []byte {
	return p.raw
}

func (p *ParkedMessage) Digest() string {
	return p.digest
}

func (p *ParkedMessage) Reason() string {
	return p.reason
}

func (p *ParkedMessage) ParkedAt() time.Time {
	return p.parkedAt
}

func (p *ParkedMessage) RetriedAt() *time.Time {
	return p.retriedAt
}

func (p *ParkedMessage) IsResolved() bool {
	return p.resolved
}

func (p *ParkedMessage) SetID(id uint) {
	p.id = id
}

// MarkRetried records a retry. A successful retry resolves the message;
// a failed one keeps it parked with the latest reason.
func (p *ParkedMessage) MarkRetried(now time.Time, resolved bool, reason string) {
	p.retriedAt = &now
	p.resolved = resolved
	if !resolved && reason != "" {
		p.reason = reason
	}
}
