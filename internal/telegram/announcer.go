package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
	"github.com/set-night/memelord/internal/wallet"
)

// Announcer tells the submitter how their payout went and reposts winning
// memes to the announce chat.
type Announcer struct {
	bot            *bot.Bot
	announceChatID int64
	ops            *OpsLogger
}

func NewAnnouncer(b *bot.Bot, cfg *config.Config, ops *OpsLogger) *Announcer {
	return &Announcer{bot: b, announceChatID: cfg.AnnounceChatID, ops: ops}
}

func (a *Announcer) SubmissionRewarded(ctx context.Context, sub domain.Submission, res domain.PayoutResult) {
	replyTo := sub.Content.MessageID
	if err := SendLongMessage(ctx, a.bot, sub.Content.ChatID, RewardText(sub.Owner, res), &replyTo); err != nil {
		slog.ErrorContext(ctx, "send reward message", "submission_id", sub.ID, "error", err)
	}

	if res.Badge != nil {
		a.ops.LogBadgeAwarded(sub.Owner, res.Badge.Tier.Name, res.TotalSats)
		if res.BonusError != nil {
			a.ops.LogBonusDiverged(sub.Owner, res)
		}
	}

	if a.announceChatID == 0 {
		return
	}
	_, err := a.bot.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:     a.announceChatID,
		FromChatID: sub.Content.ChatID,
		MessageID:  sub.Content.MessageID,
		Caption:    "This meme has been approved by 1Sat Society. Pump our bags!",
	})
	if err != nil {
		slog.ErrorContext(ctx, "repost winning meme", "submission_id", sub.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "winning meme reposted", "submission_id", sub.ID, "chat_id", a.announceChatID)
}

func (a *Announcer) SubmissionPayoutFailed(ctx context.Context, sub domain.Submission, err error) {
	a.ops.LogPayoutFailed(sub, err)

	_, serr := a.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: sub.Content.ChatID,
		Text:   fmt.Sprintf("Your meme hit the reaction goal, @%s, but the payout did not go through. An admin will retry it.", sub.Owner.Username),
		ReplyParameters: &models.ReplyParameters{
			MessageID:                sub.Content.MessageID,
			AllowSendingWithoutReply: true,
		},
	})
	if serr != nil {
		slog.ErrorContext(ctx, "send payout failure message", "submission_id", sub.ID, "error", serr)
	}
}

// RewardText renders the congratulation sent back to the submitter.
func RewardText(owner domain.Owner, res domain.PayoutResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎉 Based! 🎉\nYour meme got the reactions it needed, @%s! You win %d sats (%s BSV).\n\n",
		owner.Username, res.Amount, wallet.ToCoins(res.Amount).String())
	fmt.Fprintf(&sb, "Transaction ID: %s\n", res.TxID)
	fmt.Fprintf(&sb, "Total sats earned: %d\n", res.TotalSats)

	if res.Badge != nil {
		fmt.Fprintf(&sb, "\nNew badge: %s", res.Badge.Tier.Name)
		if res.Badge.Tier.BonusSats > 0 {
			fmt.Fprintf(&sb, " and an additional %d sats bonus!", res.Badge.Tier.BonusSats)
		}
		sb.WriteString("\n")
		if res.BonusTxID != "" {
			fmt.Fprintf(&sb, "Bonus transaction ID: %s\n", res.BonusTxID)
		} else if res.BonusError != nil {
			sb.WriteString("The bonus payment is delayed, an admin has been notified.\n")
		}
	}
	return sb.String()
}

// BadgesText renders a user's ledger entry for /badges.
func BadgesText(entry domain.LedgerEntry) string {
	var sb strings.Builder
	sb.WriteString("🏅 Meme Badges 🏅\n\n")
	if len(entry.Badges) == 0 {
		sb.WriteString("No badges yet.\n")
	}
	for _, b := range entry.Badges {
		fmt.Fprintf(&sb, "• %s\n", b)
	}
	fmt.Fprintf(&sb, "\nTotal sats earned: %d", entry.TotalSats)
	return sb.String()
}
