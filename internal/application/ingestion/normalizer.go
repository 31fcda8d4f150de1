package ingestion

import (
	"bytes"
	"errors"
	"html"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"
	htmlcharset "golang.org/x/net/html/charset"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
)

const defaultMaxBodyBytes = 128 * 1024

func init() {
	gomessage.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return htmlcharset.NewReaderLabel(charset, input)
	}
}

// Normalizer converts raw RFC 5322 bytes into an InboundMessage. It keeps no
// state between calls and is safe for concurrent use.
type Normalizer struct {
	maxBodyBytes int
	htmlPolicy   *bluemonday.Policy
	now          func() time.Time
}

func NewNormalizer(maxBodyBytes int64) *Normalizer {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Normalizer{
		maxBodyBytes: int(maxBodyBytes),
		htmlPolicy:   bluemonday.StrictPolicy(),
		now:          time.Now,
	}
}

// Normalize parses raw. Any failure is a *NormalizationError.
func (n *Normalizer) Normalize(raw RawMessage) (*InboundMessage, error) {
	if len(bytes.TrimSpace(raw.Data)) == 0 {
		return nil, newNormalizationError("empty message", nil)
	}

	reader, err := mail.CreateReader(bytes.NewReader(raw.Data))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return nil, newNormalizationError("unparseable header block", err)
	}
	if reader == nil {
		return nil, newNormalizationError("unparseable header block", err)
	}
	defer reader.Close()

	h := &reader.Header

	from, err := firstAddress(h, "From")
	if err != nil {
		return nil, newNormalizationError("unparseable From header", err)
	}
	if from == "" {
		return nil, newNormalizationError("missing From header", nil)
	}

	subject, err := h.Subject()
	if err != nil {
		return nil, newNormalizationError("undecodable subject", err)
	}
	subject = strings.TrimSpace(subject)

	to := ""
	for _, key := range []string{"To", "Delivered-To", "X-Original-To"} {
		if addr, err := firstAddress(h, key); err == nil && addr != "" {
			to = addr
			break
		}
	}

	receivedAt := raw.FetchedAt
	dated := false
	if date, err := h.Date(); err == nil && !date.IsZero() {
		receivedAt = date
		dated = true
	}
	if receivedAt.IsZero() {
		receivedAt = n.now()
	}
	receivedAt = receivedAt.UTC()

	body, err := n.readBody(reader)
	if err != nil {
		return nil, newNormalizationError("undecodable body", err)
	}

	msg := &InboundMessage{
		From:       from,
		To:         to,
		Subject:    subject,
		Body:       body,
		ReceivedAt: receivedAt,
	}

	if ids := parseMessageIDs(h.Get("Message-Id")); len(ids) > 0 {
		msg.MessageID = ids[0]
	} else {
		stamp := "raw:" + ticket.RawDigest(raw.Data)
		if dated {
			stamp = dateStamp(receivedAt)
		}
		msg.MessageID = syntheticMessageID(from, to, subject, stamp)
		msg.SyntheticID = true
	}

	if ids := parseMessageIDs(h.Get("In-Reply-To")); len(ids) > 0 {
		msg.InReplyTo = ids[0]
	}

	refs := parseMessageIDs(h.Values("References")...)
	msg.References = make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != msg.MessageID {
			msg.References = append(msg.References, ref)
		}
	}

	return msg, nil
}

func firstAddress(h *mail.Header, key string) (string, error) {
	if !h.Has(key) {
		return "", nil
	}
	list, err := h.AddressList(key)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(list[0].Address)), nil
}

// readBody returns the first text/plain part, else the first text/html part
// reduced to text.
func (n *Normalizer) readBody(reader *mail.Reader) (string, error) {
	var htmlBody string
	haveHTML := false

	// HTML shrinks once tags are stripped, so allow more raw input.
	readLimit := int64(n.maxBodyBytes) * 4

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		// An unknown charset leaves the part in its original encoding.
		if err != nil && !(gomessage.IsUnknownCharset(err) && part != nil) {
			return "", err
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, err := header.ContentType()
		if err != nil || mediaType == "" {
			mediaType = "text/plain"
		}
		mediaType = strings.ToLower(mediaType)

		switch mediaType {
		case "text/plain":
			data, err := io.ReadAll(io.LimitReader(part.Body, readLimit))
			if err != nil {
				return "", err
			}
			return n.clip(string(data)), nil
		case "text/html":
			if haveHTML {
				continue
			}
			data, err := io.ReadAll(io.LimitReader(part.Body, readLimit))
			if err != nil {
				return "", err
			}
			htmlBody = n.htmlToText(string(data))
			haveHTML = true
		}
	}

	if haveHTML {
		return n.clip(htmlBody), nil
	}
	return "", nil
}

func (n *Normalizer) htmlToText(s string) string {
	text := html.UnescapeString(n.htmlPolicy.Sanitize(s))
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// clip repairs invalid UTF-8 and truncates to the byte limit on a rune boundary.
func (n *Normalizer) clip(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if len(s) <= n.maxBodyBytes {
		return strings.TrimRight(s, "\n")
	}
	cut := n.maxBodyBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
