package docproc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Fallback messages shown when the backend supplies no detail.
const (
	MsgUploadFailed  = "Error uploading document"
	MsgSearchFailed  = "Error searching documents"
	MsgAskFailed     = "Error getting answer"
	MsgListFailed    = "Error fetching documents"
	MsgDetailsFailed = "Error fetching document details"
	MsgDeleteFailed  = "Failed to delete document"
)

// Error represents a failed API call.
//
// Message is the single human-readable text for display: the backend's
// detail when it sent one, otherwise the operation's fallback. StatusCode is
// zero when no HTTP response was received.
type Error struct {
	StatusCode int
	Detail     string
	Message    string
	Op         string // Operation that failed (e.g., "GetDocument")
	Err        error  // Underlying transport or decode error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err indicates a 404 response.
func IsNotFound(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// ErrorMessage returns the display text for err, using fallback for errors
// that do not come from the API client.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Error() != "" {
		return apiErr.Error()
	}
	return fallback
}

// wrapError normalizes any failure of op into an *Error whose Message is the
// backend detail or the fallback.
func wrapError(err error, op, fallback string) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		apiErr.Op = op
		apiErr.Message = fallback
		if apiErr.Detail != "" {
			apiErr.Message = apiErr.Detail
		}
		return apiErr
	}
	return &Error{Op: op, Message: fallback, Err: err}
}

// parseDetail extracts the "detail" field of an error body. FastAPI sends
// either a string or a list of validation errors.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
