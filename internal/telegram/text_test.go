package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplitMessageShort(t *testing.T) {
	require.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
}

func TestSplitMessagePrefersNewline(t *testing.T) {
	text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)

	parts := SplitMessage(text, 10)
	require.Equal(t, []string{strings.Repeat("a", 8) + "\n", strings.Repeat("b", 8)}, parts)
}

func TestSplitMessageCountsRunes(t *testing.T) {
	text := strings.Repeat("😂", 25)

	parts := SplitMessage(text, 10)
	require.Len(t, parts, 3)
	for _, p := range parts {
		require.LessOrEqual(t, utf8.RuneCountInString(p), 10)
	}
	require.Equal(t, text, strings.Join(parts, ""))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 100))

	out := Truncate(strings.Repeat("x", 200), 50)
	require.Equal(t, 50, utf8.RuneCountInString(out))
	require.True(t, strings.HasSuffix(out, "(truncated)"))
}

func TestParseReviewCallback(t *testing.T) {
	id, ok := ParseReviewCallback(CallbackApproveEmojis+"42", CallbackApproveEmojis)
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	_, ok = ParseReviewCallback(CallbackRejectEmojis+"42", CallbackApproveEmojis)
	require.False(t, ok)

	_, ok = ParseReviewCallback(CallbackApproveEmojis+"abc", CallbackApproveEmojis)
	require.False(t, ok)
}

func TestEmojiReviewKeyboard(t *testing.T) {
	kb := EmojiReviewKeyboard(7)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Equal(t, "emoji_approve_7", kb.InlineKeyboard[0][0].CallbackData)
	require.Equal(t, "emoji_reject_7", kb.InlineKeyboard[0][1].CallbackData)
}
