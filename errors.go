package debate

import (
	"errors"
	"fmt"

	"github.com/xraph/debate/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("debate: invalid input")

	// Session errors
	ErrSessionNotFound     = errors.New("debate: session not found")
	ErrSessionExpired      = errors.New("debate: session expired")
	ErrParticipantNotFound = errors.New("debate: participant not found")
	ErrQuestionNotFound    = errors.New("debate: question not found")
	ErrDuplicateOwner      = errors.New("debate: session already has an owner")
	ErrDuplicateQuestion   = errors.New("debate: duplicate question id")
	ErrDuplicateResponse   = errors.New("debate: question already answered")
	ErrInvalidOption       = errors.New("debate: option is not one of the question's options")
	ErrNotOwner            = errors.New("debate: only the session owner may do this")

	// Quota errors
	ErrQuestionLimitReached = errors.New("debate: question limit reached")

	// Billing errors
	ErrUnknownFeature      = errors.New("debate: unknown feature")
	ErrUnknownTier         = errors.New("debate: unknown match tier")
	ErrInsufficientBalance = errors.New("debate: insufficient balance")
	ErrBalanceOverflow     = errors.New("debate: balance would overflow")

	// Store errors
	ErrStoreClosed = errors.New("debate: store is closed")

	// Cache errors
	ErrCacheMiss = errors.New("debate: cache miss")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("debate: validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is match ValidationError against ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InsufficientBalanceError is returned when a purchase costs more than the
// participant's current balance. No ledger entry is written in that case.
type InsufficientBalanceError struct {
	Feature  string
	Required types.Credits
	Current  types.Credits
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("debate: insufficient balance for %s: required %d, current %d",
		e.Feature, e.Required, e.Current)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// QuestionLimitError is returned when the owner tries to add a question past
// the session's question limit.
type QuestionLimitError struct {
	Current     int
	Max         int
	UpgradeCost types.Credits
}

func (e *QuestionLimitError) Error() string {
	return fmt.Sprintf("debate: question limit reached (%d/%d)", e.Current, e.Max)
}

func (e *QuestionLimitError) Unwrap() error { return ErrQuestionLimitReached }

func invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// IsValidation returns true if the error means the input was rejected as malformed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrUnknownFeature) ||
		errors.Is(err, ErrUnknownTier) ||
		errors.Is(err, ErrBalanceOverflow)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrQuestionNotFound)
}

// IsDuplicate returns true if the error reports a uniqueness violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateOwner) ||
		errors.Is(err, ErrDuplicateQuestion) ||
		errors.Is(err, ErrDuplicateResponse)
}

// IsPermission returns true if the caller is not allowed to perform the action.
func IsPermission(err error) bool {
	return errors.Is(err, ErrNotOwner)
}
