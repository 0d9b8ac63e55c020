package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
	"github.com/set-night/memelord/internal/service"
	"github.com/set-night/memelord/internal/telegram"
)

// maxListedAssets bounds how many files /listemojis sends back.
const maxListedAssets = 10

func (h *Handler) handleSubmitEmojisHint(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	reply(ctx, b, update.Message, "Please upload a single zip file with the caption /submitemojis.")
}

func (h *Handler) handleEmojiSubmission(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	if !isZip(msg.Document) {
		reply(ctx, b, msg, "Please upload a single zip file with your command.")
		return
	}
	if msg.From.Username == "" {
		reply(ctx, b, msg, "Set a Telegram username first, payouts are looked up by username.")
		return
	}

	data, _, err := telegram.DownloadFile(ctx, b, msg.Document.FileID, config.MaxArchiveBytes)
	if err != nil {
		slog.ErrorContext(ctx, "download emoji archive", "user_id", msg.From.ID, "error", err)
		reply(ctx, b, msg, "Failed to download your zip file, please try again.")
		return
	}

	owner := ownerOf(msg.From)
	added, err := h.emojis.Submit(ctx, owner, data, msg.Chat.ID)
	if errors.Is(err, domain.ErrQueueFull) {
		reply(ctx, b, msg, "You already have too many emojis waiting for review. Wait for a moderator first.")
		return
	}
	if err != nil {
		slog.WarnContext(ctx, "emoji submission rejected", "user_id", owner.UserID, "error", err)
		reply(ctx, b, msg, "Failed to process your zip file. Please ensure it contains valid image files.")
		return
	}
	if added == 0 {
		reply(ctx, b, msg, "Your zip file has no png, jpg, jpeg or gif images.")
		return
	}

	reply(ctx, b, msg, fmt.Sprintf("Your emoji submission has been received, @%s.", owner.Username))
}

func (h *Handler) handleListEmojis(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || !h.isAdmin(msg) {
		return
	}
	userID, err := userIDArg(msg.Text)
	if err != nil {
		reply(ctx, b, msg, "Usage: /listemojis <user id>")
		return
	}

	assets := h.emojis.List(userID)
	if len(assets) == 0 {
		reply(ctx, b, msg, fmt.Sprintf("No emoji submissions found for %d.", userID))
		return
	}

	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = fmt.Sprintf("%s (%d bytes)", a.Name, len(a.Data))
	}
	text := fmt.Sprintf("Emoji submissions for %d:\n%s", userID, strings.Join(names, "\n"))
	if pending := h.emojis.Pending(userID); pending > 0 {
		text += fmt.Sprintf("\n\n%d previously approved emojis are still unpaid.", pending)
	}
	if err := telegram.SendLongMessage(ctx, b, msg.Chat.ID, text, nil); err != nil {
		slog.ErrorContext(ctx, "send emoji list", "error", err)
	}

	for i, a := range assets {
		if i == maxListedAssets {
			break
		}
		_, err := b.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:   msg.Chat.ID,
			Document: &models.InputFileUpload{Filename: a.Name, Data: bytes.NewReader(a.Data)},
		})
		if err != nil {
			slog.ErrorContext(ctx, "send emoji preview", "asset", a.Name, "error", err)
		}
	}
}

func (h *Handler) handleApproveEmojis(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || !h.isAdmin(msg) {
		return
	}
	userID, err := userIDArg(msg.Text)
	if err != nil {
		reply(ctx, b, msg, "Usage: /approveemojis <user id>")
		return
	}
	h.approve(ctx, b, msg.Chat.ID, userID)
}

func (h *Handler) handleRejectEmojis(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || !h.isAdmin(msg) {
		return
	}
	userID, err := userIDArg(msg.Text)
	if err != nil {
		reply(ctx, b, msg, "Usage: /rejectemojis <user id>")
		return
	}
	h.reject(ctx, b, msg.Chat.ID, userID)
}

func (h *Handler) handleApproveCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.reviewCallback(ctx, b, update, telegram.CallbackApproveEmojis, h.approve)
}

func (h *Handler) handleRejectCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.reviewCallback(ctx, b, update, telegram.CallbackRejectEmojis, h.reject)
}

func (h *Handler) reviewCallback(ctx context.Context, b *bot.Bot, update *models.Update, prefix string,
	act func(ctx context.Context, b *bot.Bot, chatID, userID int64)) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	if !h.cfg.IsAdmin(cq.From.ID) {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cq.ID,
			Text:            "Admins only.",
		})
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})

	userID, ok := telegram.ParseReviewCallback(cq.Data, prefix)
	if !ok || cq.Message.Message == nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID

	b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:    chatID,
		MessageID: cq.Message.Message.ID,
	})
	act(ctx, b, chatID, userID)
}

func (h *Handler) approve(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	res, err := h.emojis.Approve(ctx, userID)
	if errors.Is(err, domain.ErrBatchNotFound) {
		h.say(ctx, b, chatID, fmt.Sprintf("No emoji submissions found for %d.", userID))
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "approve emojis", "user_id", userID, "error", err)
		h.opsLogger.LogError(err, "approve emojis")
		return
	}

	h.say(ctx, b, chatID, approveText(res))

	owner := res.Owner
	h.opsLogger.LogEmojisApproved(owner, res.ApprovedCount, len(res.Errors), res.AmountSats)
	if res.Payout != nil && res.Payout.Badge != nil {
		h.opsLogger.LogBadgeAwarded(owner, res.Payout.Badge.Tier.Name, res.Payout.TotalSats)
		if res.Payout.BonusError != nil {
			h.opsLogger.LogBonusDiverged(owner, *res.Payout)
		}
	}
}

func (h *Handler) reject(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	err := h.emojis.Reject(ctx, userID)
	if errors.Is(err, domain.ErrBatchNotFound) {
		h.say(ctx, b, chatID, fmt.Sprintf("No emoji submissions found for %d.", userID))
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "reject emojis", "user_id", userID, "error", err)
		return
	}
	h.say(ctx, b, chatID, fmt.Sprintf("Rejected emoji submission for %d.", userID))
}

func (h *Handler) say(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if err := telegram.SendLongMessage(ctx, b, chatID, text, nil); err != nil {
		slog.ErrorContext(ctx, "send message", "chat_id", chatID, "error", err)
	}
}

func approveText(res service.ApproveResult) string {
	who := fmt.Sprintf("@%s (%d)", res.Owner.Username, res.Owner.UserID)
	var sb strings.Builder
	for _, e := range res.Errors {
		fmt.Fprintf(&sb, "Failed to create emoji %s: %v\n", e.Name, e.Err)
	}
	if res.ApprovedCount > 0 {
		fmt.Fprintf(&sb, "Approved %d emojis for %s.\n", res.ApprovedCount, who)
	} else {
		fmt.Fprintf(&sb, "Failed to approve any emojis for %s.\n", who)
	}
	switch {
	case res.Payout != nil:
		fmt.Fprintf(&sb, "Paid %d sats, transaction %s.", res.AmountSats, res.Payout.TxID)
	case res.PayoutErr != nil:
		fmt.Fprintf(&sb, "Payout of %d sats failed: %v. The count is kept for the next approval.", res.AmountSats, res.PayoutErr)
	}
	return strings.TrimRight(sb.String(), "\n")
}
