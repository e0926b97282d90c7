package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBank matches every InsufficientBankError.
	ErrInsufficientBank = errors.New("question bank cannot satisfy the quiz strata")
	// ErrAttemptNotFound is returned for unknown attempts or attempts of another student.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAlreadyGraded is returned when an attempt already has a finish time.
	ErrAlreadyGraded = errors.New("attempt already graded")
	// ErrAttemptNotGraded is returned when reviewing an attempt that is still open.
	ErrAttemptNotGraded = errors.New("attempt not graded yet")
	// ErrInvalidSubmission marks malformed submissions; nothing is persisted for them.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrItemNotFound indicates an unknown quiz item.
	ErrItemNotFound = errors.New("quiz item not found")
	// ErrRecommendationNotFound is returned when a recommendation does not exist for the student.
	ErrRecommendationNotFound = errors.New("recommendation not found")
	// ErrModuleNotFound indicates an unknown learning module.
	ErrModuleNotFound = errors.New("module not found")
	// ErrAccountNotFound indicates no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidInput marks request payloads that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InsufficientBankError reports the first stratum the bank could not fill.
type InsufficientBankError struct {
	Level     Level
	Required  int
	Available int
}

func (e *InsufficientBankError) Error() string {
	return fmt.Sprintf("%s: level %s needs %d items, bank has %d", ErrInsufficientBank, e.Level, e.Required, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientBank) match.
func (e *InsufficientBankError) Is(target error) bool {
	return target == ErrInsufficientBank
}

// InvalidSubmission wraps ErrInvalidSubmission with a reason.
func InvalidSubmission(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubmission, fmt.Sprintf(format, args...))
}
