package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jason-riddle/docproc-go"
)

// QA is the question answering screen. An empty answer list renders
// nothing: there is no "no results" state here.
type QA struct {
	api API

	// K is the number of chunks retrieved for the answer, 0 for the default.
	K int

	// Detail is the modal opened from a citation.
	Detail *Modal

	mu       sync.Mutex
	question string
	answers  []docproc.AnswerItem
	status   Status
	err      string
}

// QAState is a snapshot of the QA screen.
type QAState struct {
	Question string
	Answers  []docproc.AnswerItem
	Status   Status
	Loading  bool
	Label    string
	Error    string
}

// NewQA creates the QA screen.
func NewQA(api API) *QA {
	return &QA{api: api, Detail: NewModal(api)}
}

// Submit asks question.
func (q *QA) Submit(ctx context.Context, question string) error {
	q.mu.Lock()
	if q.status == Pending {
		q.mu.Unlock()
		return ErrBusy
	}
	q.question = question
	if strings.TrimSpace(question) == "" {
		q.status = Idle
		q.err = MsgEmptyQuestion
		q.mu.Unlock()
		return &ValidationError{Message: MsgEmptyQuestion}
	}
	q.status = Pending
	q.err = ""
	q.mu.Unlock()

	answers, err := q.api.AskWithOptions(ctx, question, &docproc.SearchOptions{K: q.K})

	q.mu.Lock()
	defer q.mu.Unlock()

	if err != nil {
		q.status = Failed
		q.err = docproc.ErrorMessage(err, docproc.MsgAskFailed)
		return err
	}

	q.status = Succeeded
	q.answers = answers
	q.err = ""
	return nil
}

// OpenCitation opens the detail modal on the location answer row i cites.
func (q *QA) OpenCitation(ctx context.Context, i int) error {
	q.mu.Lock()
	if i < 0 || i >= len(q.answers) {
		q.mu.Unlock()
		return fmt.Errorf("no answer row %d", i)
	}
	a := q.answers[i]
	q.mu.Unlock()

	id, hl, ok := AnswerCitation(a)
	if !ok {
		return fmt.Errorf("answer row %d is not a citation", i)
	}
	return q.Detail.OpenCitation(ctx, id, hl)
}

// Snapshot returns the current state of the screen.
func (q *QA) Snapshot() QAState {
	q.mu.Lock()
	defer q.mu.Unlock()

	return QAState{
		Question: q.question,
		Answers:  append([]docproc.AnswerItem(nil), q.answers...),
		Status:   q.status,
		Loading:  q.status == Pending,
		Label:    label(q.status, "Submit Question", "Getting answer..."),
		Error:    q.err,
	}
}
