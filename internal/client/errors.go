package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is returned by every Client operation that does not succeed. Status is
// the HTTP status code, or 0 when the request never produced a usable response
// (network failure, timeout, malformed body).
type Error struct {
	Status  int
	Message string
	Body    json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		if e.Err != nil && e.Message != e.Err.Error() {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError builds the error a backend returns for a non-2xx response. The
// message is taken from the body's "message" field when there is one.
func StatusError(status int, body json.RawMessage) *Error {
	msg := http.StatusText(status)
	if len(body) > 0 && json.Valid(body) {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.Message != "":
				msg = payload.Message
			case payload.Error != "":
				msg = payload.Error
			}
		}
	} else {
		body = nil
	}
	if msg == "" {
		msg = "Request failed"
	}
	return &Error{Status: status, Message: msg, Body: body}
}

// TransportError wraps failures that happened before a status could be read.
func TransportError(msg string, err error) *Error {
	return &Error{Message: msg, Err: err}
}

func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}
