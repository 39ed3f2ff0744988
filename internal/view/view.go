// Package view holds the state of each screen: Home, Documents, Search, QA
// and the document detail modal. Each controller owns its own state, calls
// the API once per user action and exposes the result through Snapshot.
package view

import (
	"context"
	"errors"
	"io"

	"github.com/jason-riddle/docproc-go"
)

// API is the part of *docproc.Client the views use.
type API interface {
	ListDocuments(ctx context.Context) ([]docproc.Document, error)
	GetDocument(ctx context.Context, id int) (*docproc.DocumentDetail, error)
	DeleteDocument(ctx context.Context, id int) error
	UploadDocument(ctx context.Context, filename string, r io.Reader) (*docproc.UploadResult, error)
	SearchWithOptions(ctx context.Context, query string, opts *docproc.SearchOptions) ([]docproc.SearchResult, error)
	AskWithOptions(ctx context.Context, question string, opts *docproc.SearchOptions) ([]docproc.AnswerItem, error)
}

var _ API = (*docproc.Client)(nil)

// Status is the state of one kind of user action.
type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validation messages shown without contacting the backend.
const (
	MsgNoFile        = "Please select a file"
	MsgEmptyQuery    = "Please enter a search query"
	MsgEmptyQuestion = "Please enter a question"
)

// ValidationError is returned when a required input is missing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrBusy is returned when an action is triggered while the same action
	// is still pending; the control is disabled in that state.
	ErrBusy = errors.New("request already in progress")

	// ErrCancelled is returned when the user declines a confirmation prompt.
	ErrCancelled = errors.New("cancelled")

	// ErrStale is returned by a modal fetch whose result was discarded because
	// the modal was closed or reopened meanwhile.
	ErrStale = errors.New("modal closed before content arrived")
)

// label picks the button text for a control.
func label(s Status, idle, pending string) string {
	if s == Pending {
		return pending
	}
	return idle
}
