package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers everything that prevented a response from arriving
	ErrTransport = errors.New("backend unreachable")
	// ErrRejected is matched by every *RejectionError
	ErrRejected = errors.New("backend rejected request")
	// ErrSchema means the response arrived but had an unexpected shape
	ErrSchema = errors.New("unexpected backend response")
)

// RejectionError is a non-2xx answer from the backend
type RejectionError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}
