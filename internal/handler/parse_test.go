package handler

import (
	"errors"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/set-night/memelord/internal/domain"
	"github.com/set-night/memelord/internal/service"
)

func TestSubmissionID(t *testing.T) {
	require.Equal(t, domain.SubmissionID("-1001:42"), submissionID(-1001, 42))
}

func TestCaptionCommand(t *testing.T) {
	require.Equal(t, "/memelord", captionCommand("/memelord"))
	require.Equal(t, "/memelord", captionCommand("/Memelord@MemeBot look at this"))
	require.Equal(t, "/submitemojis", captionCommand("  /submitemojis pack 2"))
	require.Empty(t, captionCommand("just a caption"))
	require.Empty(t, captionCommand(""))
}

func TestUserIDArg(t *testing.T) {
	id, err := userIDArg("/approveemojis 12345")
	require.NoError(t, err)
	require.Equal(t, int64(12345), id)

	_, err = userIDArg("/approveemojis")
	require.ErrorIs(t, err, errNoArgument)

	_, err = userIDArg("/approveemojis bob")
	require.Error(t, err)
}

func TestMemeFile(t *testing.T) {
	id, name, ok := memeFile(&models.Message{Photo: []models.PhotoSize{{FileID: "small"}, {FileID: "big"}}})
	require.True(t, ok)
	require.Equal(t, "big", id)
	require.Equal(t, "photo.jpg", name)

	id, name, ok = memeFile(&models.Message{Document: &models.Document{FileID: "doc", FileName: "pepe.GIF"}})
	require.True(t, ok)
	require.Equal(t, "doc", id)
	require.Equal(t, "pepe.GIF", name)

	_, _, ok = memeFile(&models.Message{Text: "no file"})
	require.False(t, ok)
}

func TestIsZip(t *testing.T) {
	require.True(t, isZip(&models.Document{FileName: "pack.ZIP"}))
	require.False(t, isZip(&models.Document{FileName: "pack.rar"}))
	require.False(t, isZip(nil))
}

func TestStuckText(t *testing.T) {
	require.Contains(t, stuckText(nil), "No submissions")

	text := stuckText([]domain.Submission{{ID: "1:2", Owner: domain.Owner{Username: "alice"}}})
	require.Contains(t, text, "1:2 by @alice")
}

func TestApproveText(t *testing.T) {
	alice := domain.Owner{UserID: 7, Username: "alice"}
	text := approveText(service.ApproveResult{
		Owner:         alice,
		ApprovedCount: 1,
		Errors:        []domain.AssetError{{Name: "huge.png", Err: domain.ErrAssetTooLarge}},
		AmountSats:    1500,
		Payout:        &domain.PayoutResult{TxID: "tx-1"},
	})
	require.Contains(t, text, "Failed to create emoji huge.png")
	require.Contains(t, text, "Approved 1 emojis for @alice (7).")
	require.Contains(t, text, "Paid 1500 sats, transaction tx-1.")

	text = approveText(service.ApproveResult{Owner: alice, AmountSats: 3000, PayoutErr: errors.New("down")})
	require.Contains(t, text, "Failed to approve any emojis for @alice (7).")
	require.Contains(t, text, "count is kept")
}
