package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Logging returns middleware that logs update processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			updateType, chatID, userID := describe(update)

			next(ctx, b, update)

			slog.Debug("update processed",
				"type", updateType,
				"chat_id", chatID,
				"user_id", userID,
				"duration", time.Since(start),
			)
		}
	}
}

func describe(update *models.Update) (updateType string, chatID, userID int64) {
	switch {
	case update.Message != nil:
		updateType = "message"
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
	case update.MessageReaction != nil:
		updateType = "message_reaction"
		chatID = update.MessageReaction.Chat.ID
		if update.MessageReaction.User != nil {
			userID = update.MessageReaction.User.ID
		}
	case update.CallbackQuery != nil:
		updateType = "callback_query"
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		userID = update.CallbackQuery.From.ID
	default:
		updateType = "unknown"
	}
	return updateType, chatID, userID
}
