package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken string `env:"BOT_TOKEN,required,notEmpty"`

	// Payment: signing wallet service
	WalletAPIURL string `env:"WALLET_API_URL,required"`
	WalletAPIKey string `env:"WALLET_API_KEY,required"`

	// Address directory
	AddressDirectoryURL string        `env:"ADDRESS_DIRECTORY_URL" envDefault:"https://1satsociety.com/show_users"`
	AddressCacheTTL     time.Duration `env:"ADDRESS_CACHE_TTL" envDefault:"30s"`

	// Channels
	AnnounceChatID int64 `env:"ANNOUNCE_CHAT_ID,required"`
	ReviewChatID   int64 `env:"REVIEW_CHAT_ID,required"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Memes
	ReactionThreshold     int           `env:"REACTION_THRESHOLD" envDefault:"10"`
	SubmissionRewardSats  int64         `env:"SUBMISSION_REWARD_SATS" envDefault:"10000"`
	SubmissionTTL         time.Duration `env:"SUBMISSION_TTL" envDefault:"24h"`
	SubmissionSweepPeriod time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`

	// Emojis
	EmojiUnitPriceSats int64  `env:"EMOJI_UNIT_PRICE_SATS" envDefault:"1500"`
	EmojiMaxBytes      int    `env:"EMOJI_MAX_BYTES" envDefault:"262144"`
	StickerSetName     string `env:"STICKER_SET_NAME"`
	StickerSetOwnerID  int64  `env:"STICKER_SET_OWNER_ID"`

	// Payout journal (optional)
	DatabaseURL string `env:"DATABASE_URL"`

	// Server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":5001"`

	// Bot behavior
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReactionThreshold <= 0 {
		return fmt.Errorf("REACTION_THRESHOLD must be positive, got %d", c.ReactionThreshold)
	}
	if c.SubmissionRewardSats <= 0 {
		return fmt.Errorf("SUBMISSION_REWARD_SATS must be positive, got %d", c.SubmissionRewardSats)
	}
	if c.EmojiUnitPriceSats <= 0 {
		return fmt.Errorf("EMOJI_UNIT_PRICE_SATS must be positive, got %d", c.EmojiUnitPriceSats)
	}
	if c.SubmissionTTL <= 0 || c.SubmissionSweepPeriod <= 0 {
		return fmt.Errorf("SUBMISSION_TTL and SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
