// Package ingestion turns inbound mail into ticket state: it normalizes raw
// messages, drops duplicates, resolves the conversation a message belongs to
// and applies the result in a single transaction.
package ingestion

import "time"

// RawMessage is a message as handed over by a mail source.
type RawMessage struct {
	// UID identifies the message within its source, used for acking.
	UID       string
	Data      []byte
	FetchedAt time.Time
}

// InboundMessage is the canonical form of a received email.
type InboundMessage struct {
	MessageID  string
	From       string
	To         string
	Subject    string
	Body       string
	ReceivedAt time.Time
	InReplyTo  string
	// References lists referenced message IDs, oldest first.
	References []string
	// SyntheticID is set when the message carried no Message-ID and one was
	// derived from its envelope.
	SyntheticID bool
}
