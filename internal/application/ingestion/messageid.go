package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

const syntheticIDDomain = "synthetic.helpdesk"

var messageIDPattern = regexp.MustCompile(`<([^<>]+)>`)

// parseMessageIDs extracts message IDs from header values. Bracketed IDs are
// preferred; a value without brackets is split on whitespace.
func parseMessageIDs(values ...string) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		id = normalizeMessageID(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		matches := messageIDPattern.FindAllStringSubmatch(raw, -1)
		if len(matches) == 0 {
			for _, field := range strings.Fields(raw) {
				add(field)
			}
			continue
		}
		for _, m := range matches {
			add(m[1])
		}
	}
	return ids
}

func normalizeMessageID(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, "<>")
	value = strings.Trim(value, "\"")
	value = strings.TrimSpace(value)
	if strings.ContainsAny(value, " \t\r\n") {
		return ""
	}
	return value
}

// syntheticMessageID derives a stable ID from the envelope and stamp. The
// stamp is the Date header when there is one, otherwise a digest of the raw
// bytes, so a re-fetched copy always hashes to the same ID. Two distinct
// messages with identical envelopes and dates collide.
func syntheticMessageID(from, to, subject, stamp string) string {
	h := sha256.New()
	for _, part := range []string{from, to, subject, stamp} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)) + "@" + syntheticIDDomain
}

func dateStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
