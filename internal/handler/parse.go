package handler

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/set-night/memelord/internal/domain"
)

var errNoArgument = errors.New("missing argument")

// submissionID keys a meme by the message that carried it.
func submissionID(chatID int64, messageID int) domain.SubmissionID {
	return domain.SubmissionID(fmt.Sprintf("%d:%d", chatID, messageID))
}

// captionCommand returns the leading command of a caption with any
// @botname suffix removed.
func captionCommand(caption string) string {
	fields := strings.Fields(caption)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

// commandArg returns the first argument after the command.
func commandArg(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", errNoArgument
	}
	return fields[1], nil
}

func userIDArg(text string) (int64, error) {
	arg, err := commandArg(text)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user id %q: %w", arg, err)
	}
	return id, nil
}

// memeFile picks the uploaded image from a message: the largest photo size,
// or a document whose name passes the image allow-list downstream.
func memeFile(msg *models.Message) (fileID, fileName string, ok bool) {
	if n := len(msg.Photo); n > 0 {
		return msg.Photo[n-1].FileID, "photo.jpg", true
	}
	if msg.Document != nil {
		return msg.Document.FileID, msg.Document.FileName, true
	}
	return "", "", false
}

func ownerOf(u *models.User) domain.Owner {
	return domain.Owner{UserID: u.ID, Username: u.Username}
}

func isZip(doc *models.Document) bool {
	return doc != nil && strings.EqualFold(path.Ext(doc.FileName), ".zip")
}
