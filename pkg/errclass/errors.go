package errclass

import "fmt"

// BatonError is a stable, machine-readable error class.
type BatonError struct {
	Code    string
	Message string
}

func (e *BatonError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BatonError) Is(target error) bool {
	t, ok := target.(*BatonError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new BatonError with the same Code but a specific message.
func (e *BatonError) WithMessage(msg string) *BatonError {
	return &BatonError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new BatonError with a formatted message.
func (e *BatonError) WithMessagef(format string, args ...any) *BatonError {
	return &BatonError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrNameInvalid        = &BatonError{Code: "E_NAME_INVALID"}
	ErrPathEscape         = &BatonError{Code: "E_PATH_ESCAPE"}
	ErrLockConflict       = &BatonError{Code: "E_LOCK_CONFLICT"}
	ErrLockExpired        = &BatonError{Code: "E_LOCK_EXPIRED"}
	ErrLockNotHeld        = &BatonError{Code: "E_LOCK_NOT_HELD"}
	ErrStorageIO          = &BatonError{Code: "E_STORAGE_IO"}
	ErrMetadataMalformed  = &BatonError{Code: "E_METADATA_MALFORMED"}
	ErrWorkspaceMissing   = &BatonError{Code: "E_WORKSPACE_MISSING"}
	ErrJournalChainBroken = &BatonError{Code: "E_JOURNAL_CHAIN_BROKEN"}
)
