package errors

import "errors"

// Common errors used throughout the application
var (
	// Authentication and authorization errors
	ErrUnauthenticated = errors.New("caller must be authenticated")
	ErrNotOwner        = errors.New("caller is not the owner of this note")

	// ErrNoteAccess is surfaced for both a missing note and a foreign
	// note on the public mutation tier, so callers cannot probe for the
	// existence of other users' notes. The service wraps the precise
	// sentinel underneath it, so errors.Is can still tell the cases apart.
	ErrNoteAccess = errors.New("note not found or permission denied")

	// Database errors
	ErrNoteNotFound      = errors.New("note not found")
	ErrEmbeddingNotFound = errors.New("embedding not found")

	// Validation errors
	ErrEmptyTitle    = errors.New("title cannot be empty")
	ErrEmptyBody     = errors.New("body cannot be empty")
	ErrInvalidNoteID = errors.New("invalid note ID")

	// Embedding errors
	ErrInvalidEmbeddingLength = errors.New("invalid embedding data length")
	ErrDimensionMismatch      = errors.New("embedding dimension mismatch")
)

// NoteAccess wraps cause (ErrNoteNotFound or ErrNotOwner) in an error
// whose message is always ErrNoteAccess's. errors.Is matches both
// ErrNoteAccess and the cause, but the surfaced text never reveals
// which case occurred.
func NoteAccess(cause error) error {
	return &noteAccessError{cause: cause}
}

type noteAccessError struct {
	cause error
}

func (e *noteAccessError) Error() string {
	return ErrNoteAccess.Error()
}

func (e *noteAccessError) Is(target error) bool {
	return target == ErrNoteAccess
}

func (e *noteAccessError) Unwrap() error {
	return e.cause
}
