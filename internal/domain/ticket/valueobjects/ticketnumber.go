package valueobjects

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const maxPrefixLength = 10

var (
	prefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
	numberPattern = regexp.MustCompile(`^([A-Z][A-Z0-9]*)-([1-9][0-9]*)$`)
	// #DEF-12 or [DEF-12]
	subjectTokenPattern = regexp.MustCompile(`(?:#|\[)([A-Za-z][A-Za-z0-9]*)-([1-9][0-9]*)\]?`)
)

// TicketNumber is the human readable "<prefix>-<sequence>" identifier.
type TicketNumber struct {
	prefix   string
	sequence int64
}

// ValidatePrefix checks a queue prefix: upper case letters and digits,
// starting with a letter.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("queue prefix is required")
	}
	if len(prefix) > maxPrefixLength {
		return fmt.Errorf("queue prefix exceeds maximum length of %d characters", maxPrefixLength)
	}
	if !prefixPattern.MatchString(prefix) {
		return fmt.Errorf("invalid queue prefix: %q", prefix)
	}
	return nil
}

func NewTicketNumber(prefix string, sequence int64) (TicketNumber, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return TicketNumber{}, err
	}
	if sequence < 1 {
		return TicketNumber{}, fmt.Errorf("ticket sequence must be positive, got %d", sequence)
	}
	return TicketNumber{prefix: prefix, sequence: sequence}, nil
}

func ParseTicketNumber(s string) (TicketNumber, error) {
	m := numberPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TicketNumber{}, fmt.Errorf("invalid ticket number: %q", s)
	}
	seq, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return TicketNumber{}, fmt.Errorf("invalid ticket number: %q: %w", s, err)
	}
	return NewTicketNumber(m[1], seq)
}

// FindTicketNumbers returns the ticket tokens found in a subject line in
// order of appearance, without duplicates. Prefixes are upper-cased.
func FindTicketNumbers(subject string) []TicketNumber {
	matches := subjectTokenPattern.FindAllStringSubmatch(subject, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[TicketNumber]struct{}, len(matches))
	numbers := make([]TicketNumber, 0, len(matches))
	for _, m := range matches {
		seq, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		n, err := NewTicketNumber(strings.ToUpper(m[1]), seq)
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}
	return numbers
}

func (n TicketNumber) Prefix() string {
	return n.prefix
}

func (n TicketNumber) Sequence() int64 {
	return n.sequence
}

func (n TicketNumber) IsZero() bool {
	return n.prefix == "" && n.sequence == 0
}

func (n TicketNumber) String() string {
	if n.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s-%d", n.prefix, n.sequence)
}
