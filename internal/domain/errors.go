package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine error wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrExternalCall = errors.New("external call failed")
)

var (
	ErrAddressUnresolved  = fmt.Errorf("%w: payment address unresolved", ErrNotFound)
	ErrPaymentFailed      = fmt.Errorf("%w: payment failed", ErrExternalCall)
	ErrSubmissionNotFound = fmt.Errorf("%w: submission", ErrNotFound)
	ErrBatchNotFound      = fmt.Errorf("%w: emoji batch", ErrNotFound)
	ErrUnsupportedFile    = fmt.Errorf("%w: unsupported file type", ErrValidation)
	ErrDuplicateID        = fmt.Errorf("%w: duplicate submission id", ErrValidation)
	ErrMalformedArchive   = fmt.Errorf("%w: malformed archive", ErrValidation)
	ErrAssetTooLarge      = fmt.Errorf("%w: asset exceeds size limit", ErrValidation)
	ErrQueueFull          = fmt.Errorf("%w: emoji queue is full", ErrValidation)
	ErrInvalidTransition  = errors.New("invalid submission state transition")
	ErrPayoutInProgress   = errors.New("payout attempt already running")
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
)
