package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
)

// Gateway sends plain messages and registers custom emoji through the Bot API.
type Gateway struct {
	bot          *bot.Bot
	stickerSet   string
	stickerOwner int64
}

func NewGateway(b *bot.Bot, cfg *config.Config) *Gateway {
	return &Gateway{
		bot:          b,
		stickerSet:   cfg.StickerSetName,
		stickerOwner: cfg.StickerSetOwnerID,
	}
}

// Notify sends text to chatID, split into as many messages as needed.
func (g *Gateway) Notify(ctx context.Context, chatID int64, text string) error {
	return SendLongMessage(ctx, g.bot, chatID, text, nil)
}

// CreateAsset uploads a static sticker and adds it to the configured custom
// emoji set. It returns the uploaded file's ID.
func (g *Gateway) CreateAsset(ctx context.Context, name string, data []byte) (string, error) {
	if g.stickerSet == "" || g.stickerOwner == 0 {
		return "", fmt.Errorf("%w: sticker set not configured", domain.ErrExternalCall)
	}

	file, err := g.bot.UploadStickerFile(ctx, &bot.UploadStickerFileParams{
		UserID: g.stickerOwner,
		Sticker: &models.InputFileUpload{
			Filename: name + ".png",
			Data:     bytes.NewReader(data),
		},
		StickerFormat: "static",
	})
	if err != nil {
		return "", fmt.Errorf("upload sticker %s: %w", name, err)
	}

	_, err = g.bot.AddStickerToSet(ctx, addStickerParams(g.stickerOwner, g.stickerSet, file.FileID))
	if err != nil {
		return "", fmt.Errorf("add sticker %s to %s: %w", name, g.stickerSet, err)
	}

	slog.InfoContext(ctx, "custom emoji added", "name", name, "set", g.stickerSet, "file_id", file.FileID)
	return file.FileID, nil
}

// addStickerParams adds an already uploaded file to the set by file ID.
func addStickerParams(owner int64, set, fileID string) *bot.AddStickerToSetParams {
	return &bot.AddStickerToSetParams{
		UserID: owner,
		Name:   set,
		Sticker: models.InputSticker{
			Sticker:   fileID,
			Format:    "static",
			EmojiList: []string{config.DefaultStickerEmoji},
		},
	}
}

// RequestReview posts text to chatID with approve and reject buttons for
// userID's emoji batch.
func (g *Gateway) RequestReview(ctx context.Context, chatID, userID int64, text string) error {
	_, err := g.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        Truncate(text, config.MaxTelegramMessageLen),
		ReplyMarkup: EmojiReviewKeyboard(userID),
	})
	if err != nil {
		return fmt.Errorf("send review request: %w", err)
	}
	return nil
}

// SendLongMessage sends a potentially long plain text message, splitting it
// into parts if needed. Only the first part replies to replyToID.
func SendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, replyToID *int) error {
	for _, part := range SplitMessage(text, config.MaxTelegramMessageLen) {
		params := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
		}
		if replyToID != nil {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID:                *replyToID,
				AllowSendingWithoutReply: true,
			}
			replyToID = nil
		}

		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}
