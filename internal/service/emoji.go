package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
)

// AssetRegistrar turns an approved image into a platform emoji.
type AssetRegistrar interface {
	CreateAsset(ctx context.Context, name string, data []byte) (string, error)
}

// Notifier delivers a plain text message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// reviewRequester is implemented by notifiers that can attach approve and
// reject controls to the review chat notice.
type reviewRequester interface {
	RequestReview(ctx context.Context, chatID, userID int64, text string) error
}

type payer interface {
	Payout(ctx context.Context, req domain.PayoutRequest) (domain.PayoutResult, error)
}

// ApproveResult summarises one approval round.
type ApproveResult struct {
	Owner         domain.Owner
	ApprovedCount int
	Errors        []domain.AssetError
	// AmountSats is what the round tried to pay: the accumulated count times
	// the unit price. Zero when nothing was owed.
	AmountSats int64
	Payout     *domain.PayoutResult
	PayoutErr  error
}

type emojiBatch struct {
	owner    domain.Owner
	assets   []domain.EmojiAsset
	approved int
}

type EmojiConfig struct {
	UnitPriceSats int64
	MaxAssetBytes int
	// MaxArchiveBytes caps the decompressed size of one archive and
	// MaxQueuedBytes the decompressed bytes a user may have queued.
	MaxArchiveBytes int64
	MaxQueuedBytes  int64
	ReviewChatID    int64
}

// EmojiService queues emoji uploads per user until a moderator approves or
// rejects them. The approved count survives failed payouts.
type EmojiService struct {
	registrar AssetRegistrar
	payouts   payer
	notifier  Notifier
	cfg       EmojiConfig
	allowed   []string

	locks *keyedMutex[int64]

	mu      sync.RWMutex
	batches map[int64]*emojiBatch
}

func NewEmojiService(registrar AssetRegistrar, payouts payer, notifier Notifier, cfg EmojiConfig) *EmojiService {
	if cfg.UnitPriceSats <= 0 {
		cfg.UnitPriceSats = 1500
	}
	if cfg.MaxAssetBytes <= 0 {
		cfg.MaxAssetBytes = 256 * 1024
	}
	if cfg.MaxArchiveBytes <= 0 {
		cfg.MaxArchiveBytes = config.MaxArchiveUncompressedBytes
	}
	if cfg.MaxQueuedBytes <= 0 {
		cfg.MaxQueuedBytes = config.MaxQueuedEmojiBytes
	}
	return &EmojiService{
		registrar: registrar,
		payouts:   payouts,
		notifier:  notifier,
		cfg:       cfg,
		allowed:   config.ImageExtensions,
		locks:     newKeyedMutex[int64](),
		batches:   make(map[int64]*emojiBatch),
	}
}

// Submit appends every image in the zip archive to the user's queue.
func (s *EmojiService) Submit(ctx context.Context, owner domain.Owner, archive []byte, channelRef int64) (int, error) {
	assets, err := s.readArchive(archive, channelRef)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(owner.UserID)
	defer unlock()

	if len(assets) == 0 {
		slog.InfoContext(ctx, "emoji archive without images", "user_id", owner.UserID)
		return 0, nil
	}

	b := s.batch(owner.UserID, true)
	if queuedBytes(b.assets)+queuedBytes(assets) > s.cfg.MaxQueuedBytes {
		s.dropIfEmpty(owner.UserID, b)
		return 0, fmt.Errorf("queue emojis for %d: %w", owner.UserID, domain.ErrQueueFull)
	}
	b.owner = owner
	b.assets = append(b.assets, assets...)
	queued := len(b.assets)

	slog.InfoContext(ctx, "emoji submission received",
		"user_id", owner.UserID,
		"added", len(assets),
		"queued", queued,
	)

	text := fmt.Sprintf("New emoji submission from @%s (%d files). Use /listemojis %d to review.",
		owner.Username, queued, owner.UserID)
	if err := s.requestReview(ctx, owner.UserID, text); err != nil {
		slog.ErrorContext(ctx, "notify review chat", "error", err, "user_id", owner.UserID)
	}
	return len(assets), nil
}

// Approve registers every queued asset, clears the queue and pays for the
// accumulated approved count. Assets that fail are dropped with the queue.
func (s *EmojiService) Approve(ctx context.Context, userID int64) (ApproveResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	b := s.batch(userID, false)
	if b == nil || len(b.assets) == 0 {
		return ApproveResult{}, fmt.Errorf("approve emojis for %d: %w", userID, domain.ErrBatchNotFound)
	}
	assets := b.assets
	b.assets = nil
	channel := assets[0].ChannelRef
	defer s.dropIfEmpty(userID, b)

	result := ApproveResult{Owner: b.owner}
	for _, asset := range assets {
		if len(asset.Data) > s.cfg.MaxAssetBytes {
			err := fmt.Errorf("%d bytes over %d: %w", len(asset.Data), s.cfg.MaxAssetBytes, domain.ErrAssetTooLarge)
			result.Errors = append(result.Errors, domain.AssetError{Name: asset.Name, Err: err})
			emojiAssets.WithLabelValues("too_large").Inc()
			slog.WarnContext(ctx, "emoji too large", "user_id", userID, "asset", asset.Name, "size", len(asset.Data))
			continue
		}

		ref, err := s.registrar.CreateAsset(ctx, assetName(asset.Name), asset.Data)
		if err != nil {
			err = fmt.Errorf("%w: create asset: %w", domain.ErrExternalCall, err)
			result.Errors = append(result.Errors, domain.AssetError{Name: asset.Name, Err: err})
			emojiAssets.WithLabelValues("failed").Inc()
			slog.ErrorContext(ctx, "create emoji", "user_id", userID, "asset", asset.Name, "error", err)
			continue
		}

		result.ApprovedCount++
		emojiAssets.WithLabelValues("approved").Inc()
		slog.InfoContext(ctx, "emoji approved", "user_id", userID, "asset", asset.Name, "asset_ref", ref)
		s.notify(ctx, channel, fmt.Sprintf("Emoji %s approved and added!", assetName(asset.Name)))
	}

	b.approved += result.ApprovedCount
	if b.approved == 0 {
		return result, nil
	}

	result.AmountSats = int64(b.approved) * s.cfg.UnitPriceSats
	res, err := s.payouts.Payout(ctx, domain.PayoutRequest{
		Owner:  b.owner,
		Amount: result.AmountSats,
		Reason: domain.PayoutReasonEmoji,
		Ref:    fmt.Sprintf("emoji:%d", userID),
	})
	if err != nil {
		result.PayoutErr = err
		slog.WarnContext(ctx, "emoji payout failed, count kept",
			"user_id", userID,
			"approved_total", b.approved,
			"amount", result.AmountSats,
			"error", err,
		)
		s.notify(ctx, channel, fmt.Sprintf("Failed to pay @%s %d sats.", b.owner.Username, result.AmountSats))
		return result, nil
	}

	b.approved = 0
	result.Payout = &res
	s.notify(ctx, channel, fmt.Sprintf("@%s has been paid %d sats. Transaction ID: %s",
		b.owner.Username, result.AmountSats, res.TxID))
	return result, nil
}

// Reject clears the user's queue without paying.
func (s *EmojiService) Reject(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	b := s.batch(userID, false)
	if b == nil || len(b.assets) == 0 {
		return fmt.Errorf("reject emojis for %d: %w", userID, domain.ErrBatchNotFound)
	}
	channel := b.assets[0].ChannelRef
	dropped := len(b.assets)
	b.assets = nil
	s.dropIfEmpty(userID, b)

	slog.InfoContext(ctx, "emoji submission rejected", "user_id", userID, "dropped", dropped)
	s.notify(ctx, channel, fmt.Sprintf("Your emoji submission has been rejected, @%s.", b.owner.Username))
	return nil
}

// List returns a copy of the user's queued assets.
func (s *EmojiService) List(userID int64) []domain.EmojiAsset {
	unlock := s.locks.Lock(userID)
	defer unlock()

	b := s.batch(userID, false)
	if b == nil {
		return nil
	}
	out := make([]domain.EmojiAsset, len(b.assets))
	for i, a := range b.assets {
		out[i] = domain.EmojiAsset{Name: a.Name, Data: bytes.Clone(a.Data), ChannelRef: a.ChannelRef}
	}
	return out
}

// Pending returns the approved count still waiting for a successful payout.
func (s *EmojiService) Pending(userID int64) int {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if b := s.batch(userID, false); b != nil {
		return b.approved
	}
	return 0
}

func (s *EmojiService) readArchive(archive []byte, channelRef int64) ([]domain.EmojiAsset, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedArchive, err)
	}

	var (
		assets []domain.EmojiAsset
		total  int64
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isHiddenEntry(f.Name) {
			continue
		}
		if !domain.IsImageName(f.Name, s.allowed) {
			continue
		}
		if f.UncompressedSize64 > config.MaxArchiveEntryBytes {
			slog.Warn("skipping oversized archive entry", "entry", f.Name, "size", f.UncompressedSize64)
			continue
		}

		remaining := s.cfg.MaxArchiveBytes - total
		data, err := readEntry(f, min(remaining+1, config.MaxArchiveEntryBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrMalformedArchive, f.Name, err)
		}
		total += int64(len(data))
		if total > s.cfg.MaxArchiveBytes {
			return nil, fmt.Errorf("%w: over %d bytes decompressed", domain.ErrMalformedArchive, s.cfg.MaxArchiveBytes)
		}
		assets = append(assets, domain.EmojiAsset{
			Name:       path.Base(f.Name),
			Data:       data,
			ChannelRef: channelRef,
		})
	}
	return assets, nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, limit))
}

func queuedBytes(assets []domain.EmojiAsset) int64 {
	var n int64
	for _, a := range assets {
		n += int64(len(a.Data))
	}
	return n
}

// isHiddenEntry matches macOS resource forks and dot files at any depth.
func isHiddenEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX") {
		return true
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// assetName strips the extension: "pepe.png" -> "pepe".
func assetName(file string) string {
	base := path.Base(file)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func (s *EmojiService) batch(userID int64, create bool) *emojiBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[userID]
	if !ok && create {
		b = &emojiBatch{}
		s.batches[userID] = b
	}
	return b
}

func (s *EmojiService) dropIfEmpty(userID int64, b *emojiBatch) {
	if len(b.assets) > 0 || b.approved > 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batches[userID] == b {
		delete(s.batches, userID)
	}
}

func (s *EmojiService) requestReview(ctx context.Context, userID int64, text string) error {
	if rr, ok := s.notifier.(reviewRequester); ok {
		return rr.RequestReview(ctx, s.cfg.ReviewChatID, userID, text)
	}
	return s.notifier.Notify(ctx, s.cfg.ReviewChatID, text)
}

func (s *EmojiService) notify(ctx context.Context, chatID int64, text string) {
	if err := s.notifier.Notify(ctx, chatID, text); err != nil {
		slog.ErrorContext(ctx, "notify chat", "chat_id", chatID, "error", err)
	}
}
