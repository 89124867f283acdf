package storage

import "fmt"

// ErrCodeFileNotFound marks a lookup for a key with no stored file.
const ErrCodeFileNotFound = "not_found"

// StorageError carries a code alongside the message so the handler layer
// can map storage failures to HTTP statuses without importing this package's
// internals.
type StorageError struct {
	Code    string
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

// ErrFileNotFound creates an error for a missing file.
func ErrFileNotFound(key string) error {
	return &StorageError{
		Code:    ErrCodeFileNotFound,
		Message: fmt.Sprintf("file not found: %s", key),
	}
}
