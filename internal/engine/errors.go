package engine

import (
	"errors"
	"fmt"
)

// Error is the single error type the engine returns to its callers.
//
// Every code except CodePersistence and CodeConflict describes an expected,
// user-facing outcome; none is fatal and every call may simply be retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// UserID identifies the affected user, if any.
	UserID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause (store failure, ledger refusal).
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeValidation: malformed request (negative amount, bad slot). Nothing applied.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeNotFound: unknown quest instance or achievement.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeLimitReached: the reroll cap for the period is exhausted.
	CodeLimitReached ErrorCode = "LIMIT_REACHED"

	// CodeInProgress: the quest has progress and cannot be rerolled.
	CodeInProgress ErrorCode = "IN_PROGRESS"

	// CodeNoAlternatives: every template of the quest type is already in the set.
	CodeNoAlternatives ErrorCode = "NO_ALTERNATIVES"

	// CodeInsufficientResource: the caller's ledger refused the reroll cost.
	CodeInsufficientResource ErrorCode = "INSUFFICIENT_RESOURCE"

	// CodeAlreadyClaimed: the quest was claimed before. A no-op signal.
	CodeAlreadyClaimed ErrorCode = "ALREADY_CLAIMED"

	// CodeNothingToClaim: settlement found nothing payable. A no-op signal.
	CodeNothingToClaim ErrorCode = "NOTHING_TO_CLAIM"

	// CodeConflict: a concurrent request changed the same rows first. Nothing
	// was written; retry.
	CodeConflict ErrorCode = "CONFLICT"

	// CodePersistence: the store failed. Nothing partial was committed.
	CodePersistence ErrorCode = "PERSISTENCE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.UserID != "" {
		msg = fmt.Sprintf("%s (user=%s)", msg, e.UserID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text the command layer shows the player. Store details
// never leak into it.
func (e *Error) UserMessage() string {
	switch e.Code {
	case CodePersistence, CodeConflict:
		return "Something went wrong, please try again."
	default:
		return e.Message
	}
}

// CodeOf returns the code of an engine error anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsLimitReached reports whether err is a reroll limit error.
func IsLimitReached(err error) bool { return CodeOf(err) == CodeLimitReached }

// IsInProgress reports whether err rejects rerolling a started quest.
func IsInProgress(err error) bool { return CodeOf(err) == CodeInProgress }

// IsNoAlternatives reports whether err is a no-alternatives error.
func IsNoAlternatives(err error) bool { return CodeOf(err) == CodeNoAlternatives }

// IsInsufficientResource reports whether err is a ledger refusal.
func IsInsufficientResource(err error) bool { return CodeOf(err) == CodeInsufficientResource }

// IsAlreadyClaimed reports whether err is an already-claimed signal.
func IsAlreadyClaimed(err error) bool { return CodeOf(err) == CodeAlreadyClaimed }

// IsNothingToClaim reports whether err is a nothing-to-claim signal.
func IsNothingToClaim(err error) bool { return CodeOf(err) == CodeNothingToClaim }

// IsConflict reports whether err is a retryable concurrency conflict.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// IsPersistence reports whether err is a store failure.
func IsPersistence(err error) bool { return CodeOf(err) == CodePersistence }

func newError(code ErrorCode, userID, format string, args ...any) *Error {
	return &Error{Code: code, UserID: userID, Message: fmt.Sprintf(format, args...)}
}

func persistenceError(userID, op string, err error) *Error {
	return &Error{
		Code:    CodePersistence,
		Message: op + " failed",
		UserID:  userID,
		Err:     err,
	}
}
