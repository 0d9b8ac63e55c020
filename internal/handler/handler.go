package handler

import (
	"github.com/go-telegram/bot"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/service"
	"github.com/set-night/memelord/internal/telegram"
)

// Handler holds all dependencies needed by command, reaction and callback handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	submissions *service.SubmissionStore
	ledger      *service.LedgerService
	emojis      *service.EmojiService
	opsLogger   *telegram.OpsLogger
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	Submissions *service.SubmissionStore
	Ledger      *service.LedgerService
	Emojis      *service.EmojiService
	OpsLogger   *telegram.OpsLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		submissions: deps.Submissions,
		ledger:      deps.Ledger,
		emojis:      deps.Emojis,
		opsLogger:   deps.OpsLogger,
	}
}
