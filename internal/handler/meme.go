package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/memelord/internal/domain"
	"github.com/set-night/memelord/internal/service"
	"github.com/set-night/memelord/internal/telegram"
)

func (h *Handler) handleMemelordHint(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	reply(ctx, b, update.Message, "Send your meme as a photo or image file with the caption /memelord.")
}

func (h *Handler) handleMemeSubmission(ctx context.Context, b *bot.Bot, msg *models.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	if msg.From.Username == "" {
		reply(ctx, b, msg, "Set a Telegram username first, payouts are looked up by username.")
		return
	}

	fileID, fileName, ok := memeFile(msg)
	if !ok {
		reply(ctx, b, msg, "Please upload an image to submit your meme.")
		return
	}

	id := submissionID(msg.Chat.ID, msg.ID)
	_, err := h.submissions.Submit(ctx, id, ownerOf(msg.From), domain.ContentRef{
		FileID:    fileID,
		FileName:  fileName,
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	})
	switch {
	case errors.Is(err, domain.ErrUnsupportedFile):
		reply(ctx, b, msg, "Please upload a valid image file (png, jpg, jpeg, gif).")
		return
	case err != nil:
		slog.ErrorContext(ctx, "submit meme", "submission_id", id, "error", err)
		reply(ctx, b, msg, "Could not register your meme, please try again.")
		return
	}

	reply(ctx, b, msg, fmt.Sprintf("Meme submitted by @%s. Get %d reactions to stack %d sats!",
		msg.From.Username, h.cfg.ReactionThreshold, h.cfg.SubmissionRewardSats))
}

func (h *Handler) handleReaction(ctx context.Context, r *models.MessageReactionUpdated) {
	// Anonymous admin reactions carry ActorChat instead of User.
	if r.User == nil || r.User.IsBot {
		return
	}
	if len(r.NewReaction) == 0 {
		return
	}

	id := submissionID(r.Chat.ID, r.MessageID)
	outcome := h.submissions.RecordReaction(ctx, id, r.User.ID)
	if outcome == service.ReactionThresholdReached {
		slog.InfoContext(ctx, "payout dispatched", "submission_id", id)
	}
}

func (h *Handler) handleBadges(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	entry := h.ledger.Get(update.Message.From.ID)
	reply(ctx, b, update.Message, telegram.BadgesText(entry))
}

func (h *Handler) handleRetryPayout(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || !h.isAdmin(msg) {
		return
	}

	arg, err := commandArg(msg.Text)
	if err != nil {
		reply(ctx, b, msg, stuckText(h.submissions.Stuck()))
		return
	}

	id := domain.SubmissionID(arg)
	err = h.submissions.RetryPayout(ctx, id)
	switch {
	case err == nil:
		reply(ctx, b, msg, fmt.Sprintf("Retrying payout for %s.", id))
	case errors.Is(err, domain.ErrSubmissionNotFound):
		reply(ctx, b, msg, fmt.Sprintf("No submission %s.", id))
	case errors.Is(err, domain.ErrPayoutInProgress):
		reply(ctx, b, msg, fmt.Sprintf("A payout for %s is already running.", id))
	case errors.Is(err, domain.ErrInvalidTransition):
		reply(ctx, b, msg, fmt.Sprintf("Submission %s is not waiting for a payout.", id))
	default:
		slog.ErrorContext(ctx, "retry payout", "submission_id", id, "error", err)
		reply(ctx, b, msg, "Retry failed, see logs.")
	}
}

func stuckText(stuck []domain.Submission) string {
	if len(stuck) == 0 {
		return "No submissions are waiting for a payout retry."
	}
	text := "Submissions waiting for a payout retry:\n"
	for _, s := range stuck {
		text += fmt.Sprintf("%s by @%s\n", s.ID, s.Owner.Username)
	}
	return text + "\nUse /retrypayout <id>."
}
