package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	// ErrPrecondition marks caller misuse rather than bad user input.
	ErrPrecondition    = errors.New("precondition violated")
	ErrNoActiveSession = errors.New("no active session")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPersistence     = errors.New("persistence failed")
)
