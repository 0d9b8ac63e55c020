package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	memelord "github.com/set-night/memelord"
	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/handler"
	"github.com/set-night/memelord/internal/httpapi"
	"github.com/set-night/memelord/internal/middleware"
	"github.com/set-night/memelord/internal/repository"
	"github.com/set-night/memelord/internal/service"
	"github.com/set-night/memelord/internal/telegram"
	"github.com/set-night/memelord/internal/wallet"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Payout journal: Postgres when configured, structured log otherwise
	var (
		journal     service.PayoutJournal = service.LogJournal{}
		journalView httpapi.UnsettledLister
	)
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(memelord.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		repo := repository.NewJournalRepository(pool)
		journal = repo
		journalView = repo
	}

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewLimiter(cfg.RateLimitPerMinute)),
		),
		bot.WithAllowedUpdates(bot.AllowedUpdates{"message", "message_reaction", "callback_query"}),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleUpdate(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Telegram side
	opsLogger := telegram.NewOpsLogger(b, cfg)
	gateway := telegram.NewGateway(b, cfg)
	announcer := telegram.NewAnnouncer(b, cfg, opsLogger)

	// Engine
	ledger := service.NewLedgerService()
	badges := service.NewBadgeService(ledger, service.DefaultBadgeTiers)
	directory := service.NewDirectoryService(cfg.AddressDirectoryURL, cfg.AddressCacheTTL)
	payments := wallet.NewClient(cfg.WalletAPIURL, cfg.WalletAPIKey)
	submissions := service.NewSubmissionStore(cfg.ReactionThreshold)
	payouts := service.NewPayoutService(directory, payments, ledger, badges,
		service.WithJournal(journal),
		service.WithSubmissions(submissions),
		service.WithAnnouncer(announcer),
		service.WithSubmissionReward(cfg.SubmissionRewardSats),
	)
	submissions.OnThreshold(payouts.RewardSubmission)
	emojis := service.NewEmojiService(gateway, payouts, gateway, service.EmojiConfig{
		UnitPriceSats: cfg.EmojiUnitPriceSats,
		MaxAssetBytes: cfg.EmojiMaxBytes,
		ReviewChatID:  cfg.ReviewChatID,
	})

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		Submissions: submissions,
		Ledger:      ledger,
		Emojis:      emojis,
		OpsLogger:   opsLogger,
	})

	// Register all handlers
	h.Register()

	// Expire stale submissions
	sweeper := service.NewSubmissionSweeper(submissions, cfg.SubmissionTTL, cfg.SubmissionSweepPeriod)
	go sweeper.Run(ctx)

	// Health and metrics
	go func() {
		router := httpapi.NewRouter(httpapi.Config{
			Ledger:      ledger,
			Submissions: submissions,
			Journal:     journalView,
		})
		if err := httpapi.Serve(ctx, cfg.HTTPAddr, router); err != nil {
			slog.Error("http server failed", "error", err)
		}
	}()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Let payouts already dispatched finish before exiting
	submissions.Wait()
	slog.Info("bot stopped gracefully")
}
