package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseStatus(t *testing.T) {
	for _, s := range []string{"Open", "Doing", "Waiting", "Closed"} {
		bs, err := NewBaseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, bs.String())
	}

	for _, s := range []string{"", "open", "Resolved"} {
		_, err := NewBaseStatus(s)
		assert.Error(t, err, s)
	}
}

func TestBaseStatus_IsClosed(t *testing.T) {
	assert.True(t, BaseClosed.IsClosed())
	assert.False(t, BaseOpen.IsClosed())
	assert.False(t, BaseDoing.IsClosed())
	assert.False(t, BaseWaiting.IsClosed())
}

func TestMatchRule_IsHeaderChain(t *testing.T) {
	assert.True(t, MatchInReplyTo.IsHeaderChain())
	assert.True(t, MatchReferences.IsHeaderChain())
	assert.False(t, MatchSubjectToken.IsHeaderChain())
	assert.False(t, MatchNone.IsHeaderChain())
}

func TestDirection_IsValid(t *testing.T) {
	assert.True(t, DirectionInbound.IsValid())
	assert.True(t, DirectionOutbound.IsValid())
	assert.False(t, Direction("sideways").IsValid())
}
