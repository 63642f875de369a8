// Package api is the HTTP client for the challenge service.
package api

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnreachable marks failures where the service did not respond.
	ErrUnreachable = errors.New("challenge service unreachable")

	// ErrRequestFailed marks responses that carry an application error.
	ErrRequestFailed = errors.New("challenge service request failed")
)

// RequestError is an application-level error reported by the service.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned status %d", e.Status)
	}
	return e.Message
}

func newRequestError(status int, message string) error {
	return errors.Mark(&RequestError{Status: status, Message: message}, ErrRequestFailed)
}

func unreachable(err error, method, path string) error {
	return errors.Mark(errors.Wrapf(err, "%s %s", method, path), ErrUnreachable)
}

// ServerMessage returns the verbatim service message carried by err, if any.
func ServerMessage(err error) (string, bool) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return "", false
	}
	return reqErr.Error(), true
}

// UserMessage renders err as a short line fit for the terminal. Service
// messages are shown verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := ServerMessage(err); ok {
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The challenge service took too long to answer."
	}
	if errors.Is(err, ErrUnreachable) {
		return "Cannot reach the challenge service. Is it running?"
	}
	return err.Error()
}
