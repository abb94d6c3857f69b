package memory

import "fmt"

// Error implements repositories.RepositoryError for the in-memory stores.
type Error struct {
	op       string
	msg      string
	notFound bool
	conflict bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op != "" {
		return fmt.Sprintf("%s: %s", e.op, e.msg)
	}
	return e.msg
}

// IsNotFound reports whether the error represents a missing record.
func (e *Error) IsNotFound() bool {
	return e != nil && e.notFound
}

// IsConflict reports whether the error represents a conflicting write.
func (e *Error) IsConflict() bool {
	return e != nil && e.conflict
}

// IsUnavailable always reports false; the in-memory stores cannot be down.
func (e *Error) IsUnavailable() bool {
	return false
}

func notFoundError(op, msg string) *Error {
	return &Error{op: op, msg: msg, notFound: true}
}

func conflictError(op, msg string) *Error {
	return &Error{op: op, msg: msg, conflict: true}
}
