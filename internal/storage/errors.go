package storage

import (
	"errors"
	"fmt"
)

// ErrStorage is matched by every error the storage service returns for a
// failed underlying operation.
var ErrStorage = errors.New("storage operation failed")

// Error reports a failed storage operation. The message is safe to show to
// end users; the underlying cause is reachable through Unwrap and is logged
// when the error is created.
type Error struct {
	Op  string
	Key string
	Err error
}

var opMessages = map[string]string{
	"get":             "failed to read data from storage",
	"set":             "failed to save data to storage",
	"remove":          "failed to remove data from storage",
	"clear":           "failed to clear storage",
	"get_multiple":    "failed to read multiple items from storage",
	"set_multiple":    "failed to save multiple items to storage",
	"remove_multiple": "failed to remove multiple items from storage",
	"get_all_keys":    "failed to retrieve storage keys",
}

func (e *Error) Error() string {
	if msg, ok := opMessages[e.Op]; ok {
		return msg
	}
	return fmt.Sprintf("storage %s failed", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrStorage
}

// IsStorageError checks if an error is a storage error
func IsStorageError(err error) bool {
	var storageErr *Error
	return errors.As(err, &storageErr)
}
