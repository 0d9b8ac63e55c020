package middleware

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per chat.
type Limiter struct {
	perMinute int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func NewLimiter(perMinute int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		limiters:  make(map[int64]*rate.Limiter),
	}
}

// Allow reports whether chatID may run another command now.
func (l *Limiter) Allow(chatID int64) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.limiters[chatID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

// RateLimit returns middleware that enforces per-minute command limits.
// Reactions and callbacks are never limited; only slash commands count.
func RateLimit(l *Limiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil || !isCommand(update.Message) {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !l.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", l.perMinute)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Please wait a moment.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}

func isCommand(msg *models.Message) bool {
	return strings.HasPrefix(msg.Text, "/") || strings.HasPrefix(msg.Caption, "/")
}
