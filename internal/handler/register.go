package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/memelord/internal/telegram"
)

// Register registers all command and callback handlers on the bot instance.
// Captioned uploads and reactions arrive through HandleUpdate.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/badges", bot.MatchTypePrefix, h.handleBadges)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/memelord", bot.MatchTypePrefix, h.handleMemelordHint)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/submitemojis", bot.MatchTypePrefix, h.handleSubmitEmojisHint)

	// Admin commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/listemojis", bot.MatchTypePrefix, h.handleListEmojis)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/approveemojis", bot.MatchTypePrefix, h.handleApproveEmojis)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/rejectemojis", bot.MatchTypePrefix, h.handleRejectEmojis)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/retrypayout", bot.MatchTypePrefix, h.handleRetryPayout)

	// Emoji review callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackApproveEmojis, bot.MatchTypePrefix, h.handleApproveCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackRejectEmojis, bot.MatchTypePrefix, h.handleRejectCallback)
}

// HandleUpdate is the default handler: reactions and captioned uploads
// never match a text handler.
func (h *Handler) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.MessageReaction != nil:
		h.handleReaction(ctx, update.MessageReaction)
	case update.Message != nil && update.Message.Caption != "":
		switch captionCommand(update.Message.Caption) {
		case "/memelord":
			h.handleMemeSubmission(ctx, b, update.Message)
		case "/submitemojis":
			h.handleEmojiSubmission(ctx, b, update.Message)
		}
	}
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text: "👋 Post a meme with the caption /memelord. " +
			"Ten reactions from different people earn you sats.\n\n" +
			"/badges shows your badges and total.\n" +
			"Send a zip of emoji images with the caption /submitemojis to get paid per approved emoji.\n\n" +
			"Payouts go to the address registered for your username in the 1Sat Society directory.",
	})
}

// reply sends a plain text answer to msg, ignoring delivery errors.
func reply(ctx context.Context, b *bot.Bot, msg *models.Message, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   text,
		ReplyParameters: &models.ReplyParameters{
			MessageID:                msg.ID,
			AllowSendingWithoutReply: true,
		},
	})
}

func (h *Handler) isAdmin(msg *models.Message) bool {
	return msg.From != nil && h.cfg.IsAdmin(msg.From.ID)
}
