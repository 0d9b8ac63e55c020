package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
)

// OpsLogger mirrors operational events into the private review chat.
type OpsLogger struct {
	bot    *bot.Bot
	chatID int64
}

func NewOpsLogger(b *bot.Bot, cfg *config.Config) *OpsLogger {
	return &OpsLogger{bot: b, chatID: cfg.ReviewChatID}
}

type LogType string

const (
	LogTypeError          LogType = "error"
	LogTypePayoutFailed   LogType = "payoutFailed"
	LogTypeBonusDiverged  LogType = "bonusDiverged"
	LogTypeBadgeAwarded   LogType = "badgeAwarded"
	LogTypeEmojisApproved LogType = "emojisApproved"
)

func (l *OpsLogger) Log(logType LogType, message string) {
	if l == nil || l.chatID == 0 {
		return
	}

	message = Truncate(message, config.MaxTelegramMessageLen)

	ctx, cancel := context.WithTimeout(context.Background(), config.OpsLogTimeout)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: l.chatID,
		Text:   message,
	})
	if err != nil {
		slog.Error("failed to send ops log", "type", logType, "error", err)
	}
}

func (l *OpsLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), time.Now().Format(time.DateTime))
	l.Log(LogTypeError, msg)
}

func (l *OpsLogger) LogPayoutFailed(sub domain.Submission, err error) {
	msg := fmt.Sprintf("⚠️ Payout failed\n\nSubmission: %s\nUser: @%s (%d)\nError: %s\n\nRetry with /retrypayout %s",
		sub.ID, sub.Owner.Username, sub.Owner.UserID, err.Error(), sub.ID)
	l.Log(LogTypePayoutFailed, msg)
}

func (l *OpsLogger) LogBonusDiverged(owner domain.Owner, res domain.PayoutResult) {
	msg := fmt.Sprintf("🧾 Bonus not paid, ledger ahead of wallet\n\nUser: @%s (%d)\nBadge: %s\nBonus: %d sats\nLedger total: %d\nError: %s",
		owner.Username, owner.UserID, res.Badge.Tier.Name, res.Badge.Tier.BonusSats, res.TotalSats, res.BonusError.Error())
	l.Log(LogTypeBonusDiverged, msg)
}

func (l *OpsLogger) LogBadgeAwarded(owner domain.Owner, badge string, total int64) {
	msg := fmt.Sprintf("🏅 Badge awarded\n\nUser: @%s (%d)\nBadge: %s\nTotal: %d sats",
		owner.Username, owner.UserID, badge, total)
	l.Log(LogTypeBadgeAwarded, msg)
}

func (l *OpsLogger) LogEmojisApproved(owner domain.Owner, approved int, failed int, amount int64) {
	msg := fmt.Sprintf("😂 Emojis approved\n\nUser: @%s (%d)\nApproved: %d\nFailed: %d\nOwed: %d sats",
		owner.Username, owner.UserID, approved, failed, amount)
	l.Log(LogTypeEmojisApproved, msg)
}
