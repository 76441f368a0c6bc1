package ledger

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors.Is for any *NotFoundError.
var ErrNotFound = errors.New("record doesn't exist")

// ValidationError rejects a candidate record. Every rule is evaluated and all
// violations are kept in evaluation order; Error reports the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid record"
	}
	return e.Violations[0]
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// NotFoundError is returned by value-based updates when no record is equal to
// the target.
type NotFoundError struct{}

func (e *NotFoundError) Error() string        { return ErrNotFound.Error() }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }

// RangeError is returned when an update index is outside [0, Len).
type RangeError struct {
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("index %d is out of range: the ledger is empty", e.Index)
	}
	return fmt.Sprintf("index %d is out of range: valid range is 0 to %d", e.Index, e.Len-1)
}

func (e *RangeError) StatusCode() int { return http.StatusBadRequest }

// PersistenceError means the store could not write the record set. The
// mutation that triggered it has not been applied.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string   { return fmt.Sprintf("persist records: %v", e.Err) }
func (e *PersistenceError) Unwrap() error   { return e.Err }
func (e *PersistenceError) StatusCode() int { return http.StatusInternalServerError }

// StatusOf maps an error returned by the Manager to its status code.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}
