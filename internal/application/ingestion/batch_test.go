package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func inbound(id, inReplyTo string, refs ...string) *InboundMessage {
	return &InboundMessage{MessageID: id, InReplyTo: inReplyTo, References: refs}
}

func TestThreadChains(t *testing.T) {
	tests := []struct {
		name string
		msgs []*InboundMessage
		want [][]int
	}{
		{
			name: "unrelated messages run alone",
			msgs: []*InboundMessage{inbound("a", ""), inbound("b", ""), inbound("c", "")},
			want: [][]int{{0}, {1}, {2}},
		},
		{
			name: "reply follows parent",
			msgs: []*InboundMessage{inbound("root", ""), inbound("reply", "root")},
			want: [][]int{{0, 1}},
		},
		{
			name: "reply fetched before parent waits for it",
			msgs: []*InboundMessage{inbound("reply", "root"), inbound("other", ""), inbound("root", "")},
			want: [][]int{{2, 0}, {1}},
		},
		{
			name: "references link a deeper thread",
			msgs: []*InboundMessage{
				inbound("third", "second", "root", "second"),
				inbound("root", ""),
				inbound("second", "root", "root"),
			},
			want: [][]int{{1, 2, 0}},
		},
		{
			name: "repeated message id stays on one worker",
			msgs: []*InboundMessage{inbound("dup", ""), inbound("x", ""), inbound("dup", "")},
			want: [][]int{{0, 2}, {1}},
		},
		{
			name: "failed normalization stands alone",
			msgs: []*InboundMessage{nil, inbound("root", ""), nil, inbound("reply", "root")},
			want: [][]int{{0}, {1, 3}, {2}},
		},
		{
			name: "reference cycle falls back to batch order",
			msgs: []*InboundMessage{inbound("a", "b"), inbound("b", "a")},
			want: [][]int{{0, 1}},
		},
		{
			name: "unknown references are ignored",
			msgs: []*InboundMessage{inbound("a", "elsewhere", "older"), inbound("b", "")},
			want: [][]int{{0}, {1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, threadChains(tt.msgs))
		})
	}
}
