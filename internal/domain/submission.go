package domain

import (
	"path"
	"slices"
	"strings"
	"time"
)

type SubmissionID string

type SubmissionState string

const (
	SubmissionPending        SubmissionState = "pending"
	SubmissionPayoutInFlight SubmissionState = "payout_in_flight"
	SubmissionRewarded       SubmissionState = "rewarded"
	SubmissionExpired        SubmissionState = "expired"
)

// Owner identifies the user a payout goes to. Username is what the
// address directory is keyed on.
type Owner struct {
	UserID   int64
	Username string
}

// ContentRef points at an uploaded file in the chat platform and the
// message that carried it.
type ContentRef struct {
	FileID    string
	FileName  string
	ChatID    int64
	MessageID int
}

type Submission struct {
	ID            SubmissionID
	Owner         Owner
	Content       ContentRef
	CreatedAt     time.Time
	Reactors      map[int64]struct{}
	ReactionCount int
	State         SubmissionState
}

// Clone returns a deep copy safe to hand out of the store.
func (s *Submission) Clone() Submission {
	c := *s
	c.Reactors = make(map[int64]struct{}, len(s.Reactors))
	for id := range s.Reactors {
		c.Reactors[id] = struct{}{}
	}
	return c
}

// IsImageName reports whether name has one of the allowed image extensions.
func IsImageName(name string, allowed []string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext != "" && slices.Contains(allowed, ext)
}
