package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketNumber(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		sequence int64
		want     string
		wantErr  bool
	}{
		{name: "default queue", prefix: "DEF", sequence: 1, want: "DEF-1"},
		{name: "alphanumeric prefix", prefix: "IT2", sequence: 42, want: "IT2-42"},
		{name: "empty prefix", prefix: "", sequence: 1, wantErr: true},
		{name: "lower case prefix", prefix: "def", sequence: 1, wantErr: true},
		{name: "prefix with dash", prefix: "A-B", sequence: 1, wantErr: true},
		{name: "prefix too long", prefix: "ABCDEFGHIJK", sequence: 1, wantErr: true},
		{name: "zero sequence", prefix: "DEF", sequence: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewTicketNumber(tt.prefix, tt.sequence)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
			assert.Equal(t, tt.prefix, n.Prefix())
			assert.Equal(t, tt.sequence, n.Sequence())
		})
	}
}

func TestParseTicketNumber(t *testing.T) {
	n, err := ParseTicketNumber(" DEF-17 ")
	require.NoError(t, err)
	assert.Equal(t, "DEF", n.Prefix())
	assert.Equal(t, int64(17), n.Sequence())

	for _, bad := range []string{"", "DEF", "DEF-", "DEF-0", "DEF-01", "def-1", "DEF-1-2"} {
		_, err := ParseTicketNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestFindTicketNumbers(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    []string
	}{
		{name: "hash token", subject: "Re: Printer broken #DEF-1", want: []string{"DEF-1"}},
		{name: "bracket token", subject: "[DEF-12] Printer broken", want: []string{"DEF-12"}},
		{name: "lower case prefix normalized", subject: "re: #it-3", want: []string{"IT-3"}},
		{name: "multiple tokens dedup", subject: "[DEF-1] fwd #DEF-1 and #IT-2", want: []string{"DEF-1", "IT-2"}},
		{name: "bare number ignored", subject: "Invoice DEF-1", want: nil},
		{name: "zero sequence ignored", subject: "#DEF-0", want: nil},
		{name: "empty", subject: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, n := range FindTicketNumbers(tt.subject) {
				got = append(got, n.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTicketNumber_Zero(t *testing.T) {
	var n TicketNumber
	assert.True(t, n.IsZero())
	assert.Equal(t, "", n.String())
}
