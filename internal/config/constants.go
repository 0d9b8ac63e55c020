package config

import "time"

const (
	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Outbound HTTP timeouts
	DirectoryTimeout = 15 * time.Second
	WalletTimeout    = 30 * time.Second

	// Ops log delivery timeout
	OpsLogTimeout = 10 * time.Second

	// Sats per BSV, for display
	SatsPerCoin = 100_000_000

	// Sticker emoji attached to every custom emoji we register
	DefaultStickerEmoji = "😂"

	// Graceful shutdown budget for the HTTP server
	ShutdownTimeout = 5 * time.Second
)

// ImageExtensions is the allow-list for meme and emoji uploads.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// Badge names, highest tier first.
const (
	BadgeMemelord   = "Memelord"
	BadgeBasedMemer = "Based Memer"
	BadgeNormie     = "Normie Badge"
)

// Decompression limits for emoji archives.
const (
	// MaxArchiveEntryBytes caps how much of a single zip entry is read.
	MaxArchiveEntryBytes = 8 << 20
	// MaxArchiveUncompressedBytes caps one archive across all its entries.
	MaxArchiveUncompressedBytes = 32 << 20
	// MaxQueuedEmojiBytes caps what one user may have waiting for review.
	MaxQueuedEmojiBytes = 64 << 20
)

// MaxArchiveBytes matches the Bot API download limit for emoji archives.
const MaxArchiveBytes = 20 << 20
