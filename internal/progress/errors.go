package progress

import "fmt"

// ValidationError reports a malformed or incomplete submission that was
// rejected before any side effects were performed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NotFoundError reports a module or path id absent from the catalog.
type NotFoundError struct {
	Kind string // "module" or "path"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// StorageError wraps a store failure. Every coordinator step is
// independently idempotent, so callers may retry the whole operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigurationError reports a broken catalog entry (e.g. a zero item
// total). It is never coerced to a default.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Msg
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
