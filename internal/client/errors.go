package client

import (
	"errors"
	"fmt"
)

// Error describes a failed upstream call. Transport failures carry Err; backend rejections
// carry Status, the envelope Message and the raw Body.
type Error struct {
	Operation string
	Endpoint  string
	Status    int
	Message   string
	Body      []byte
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("%s %s: %v", e.Operation, e.Endpoint, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Operation, e.Endpoint, e.Status, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Operation, e.Endpoint, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Operation, e.Endpoint, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BackendMessage returns the backend's message for err, if it carries one.
func BackendMessage(err error) string {
	var callErr *Error
	if errors.As(err, &callErr) {
		return callErr.Message
	}
	return ""
}

// StatusOf returns the upstream HTTP status for err, or 0 when none was received.
func StatusOf(err error) int {
	var callErr *Error
	if errors.As(err, &callErr) {
		return callErr.Status
	}
	return 0
}
