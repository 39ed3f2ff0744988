package view

import (
	"context"
	"sync"

	"github.com/jason-riddle/docproc-go"
)

// ModalState is the state of the document detail modal.
type ModalState int

const (
	Closed ModalState = iota
	LoadingContent
	ShowingContent
	NoContent
	ModalFailed
)

func (s ModalState) String() string {
	switch s {
	case Closed:
		return "closed"
	case LoadingContent:
		return "loading"
	case ShowingContent:
		return "showing"
	case NoContent:
		return "no-content"
	case ModalFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Highlight marks the paragraph a citation points at. It only affects
// presentation.
type Highlight struct {
	Page      int
	Paragraph int
}

// Modal shows one document's pages. Every Open fetches the document again;
// Close discards whatever was fetched.
type Modal struct {
	api API

	mu        sync.Mutex
	gen       uint64
	state     ModalState
	docID     int
	detail    *docproc.DocumentDetail
	highlight *Highlight
	err       string
}

// ModalView is a snapshot of the modal.
type ModalView struct {
	State     ModalState
	DocID     int
	Detail    *docproc.DocumentDetail
	Highlight *Highlight
	Error     string
}

// NewModal returns a closed modal.
func NewModal(api API) *Modal {
	return &Modal{api: api}
}

// Open shows document id.
func (m *Modal) Open(ctx context.Context, id int) error {
	return m.open(ctx, id, nil)
}

// OpenCitation shows document id with the cited paragraph highlighted.
func (m *Modal) OpenCitation(ctx context.Context, id int, hl Highlight) error {
	return m.open(ctx, id, &hl)
}

func (m *Modal) open(ctx context.Context, id int, hl *Highlight) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state = LoadingContent
	m.docID = id
	m.detail = nil
	m.highlight = hl
	m.err = ""
	m.mu.Unlock()

	detail, err := m.api.GetDocument(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return ErrStale
	}

	if err != nil {
		m.state = ModalFailed
		m.err = docproc.ErrorMessage(err, docproc.MsgDetailsFailed)
		return err
	}

	m.detail = detail
	if detail.HasContent() {
		m.state = ShowingContent
	} else {
		m.state = NoContent
	}
	return nil
}

// Close hides the modal and drops its content. A fetch still in flight is
// ignored when it returns.
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.state = Closed
	m.docID = 0
	m.detail = nil
	m.highlight = nil
	m.err = ""
}

// Snapshot returns the current modal state.
func (m *Modal) Snapshot() ModalView {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := ModalView{
		State:  m.state,
		DocID:  m.docID,
		Detail: m.detail,
		Error:  m.err,
	}
	if m.highlight != nil {
		hl := *m.highlight
		v.Highlight = &hl
	}
	return v
}

// IsHighlighted reports whether the paragraph should be visually marked.
func (v ModalView) IsHighlighted(page, paragraph int) bool {
	return v.Highlight != nil && v.Highlight.Page == page && v.Highlight.Paragraph == paragraph
}

// ResultCitation returns the location a search hit points at.
func ResultCitation(r docproc.SearchResult) (int, Highlight, bool) {
	id, page, para, ok := r.Metadata.Location()
	return id, Highlight{Page: page, Paragraph: para}, ok
}

// AnswerCitation returns the location an answer row cites. Generated rows
// such as the answer text or theme summaries are not citations.
func AnswerCitation(a docproc.AnswerItem) (int, Highlight, bool) {
	id, page, para, ok := a.Citation()
	return id, Highlight{Page: page, Paragraph: para}, ok
}
