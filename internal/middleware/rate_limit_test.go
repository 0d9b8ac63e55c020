package middleware

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestLimiterBurstPerChat(t *testing.T) {
	l := NewLimiter(3)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow(1))
	}
	require.False(t, l.Allow(1))

	// Other chats have their own bucket.
	require.True(t, l.Allow(2))
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow(1))
	}
}

func TestIsCommand(t *testing.T) {
	require.True(t, isCommand(&models.Message{Text: "/badges"}))
	require.True(t, isCommand(&models.Message{Caption: "/memelord"}))
	require.False(t, isCommand(&models.Message{Text: "lol"}))
}

func TestDescribeReaction(t *testing.T) {
	typ, chatID, userID := describe(&models.Update{
		MessageReaction: &models.MessageReactionUpdated{
			Chat: models.Chat{ID: -100},
			User: &models.User{ID: 5},
		},
	})
	require.Equal(t, "message_reaction", typ)
	require.Equal(t, int64(-100), chatID)
	require.Equal(t, int64(5), userID)
}
