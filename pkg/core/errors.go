package core

import "fmt"

// SchemaError reports an input record with a missing or mistyped field.
type SchemaError struct {
	Source string // "catalog" or "activity"
	Field  string // empty when the engine did not name it
	Row    int    // 1-based row number in read order, 0 when unknown
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema error in %s records", e.Source)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" (row %d)", e.Row)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// StorageError reports an unreadable source or an unwritable destination.
type StorageError struct {
	Location string
	Op       string // "read", "write", "reset"
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Location, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
