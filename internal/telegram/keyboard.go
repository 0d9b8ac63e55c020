package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Callback data prefixes for the emoji review buttons.
const (
	CallbackApproveEmojis = "emoji_approve_"
	CallbackRejectEmojis  = "emoji_reject_"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// EmojiReviewKeyboard offers approve and reject for one user's queued batch.
func EmojiReviewKeyboard(userID int64) *models.InlineKeyboardMarkup {
	return InlineKeyboard(ButtonRow(
		InlineButton("✅ Approve", fmt.Sprintf("%s%d", CallbackApproveEmojis, userID)),
		InlineButton("❌ Reject", fmt.Sprintf("%s%d", CallbackRejectEmojis, userID)),
	))
}

// ParseReviewCallback extracts the user ID from review button data.
func ParseReviewCallback(data, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
