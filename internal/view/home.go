package view

import (
	"context"
	"sync"

	"github.com/jason-riddle/docproc-go"
)

// DefaultRecentLimit is how many documents Home shows.
const DefaultRecentLimit = 5

// Home is the landing screen: a welcome and the most recent documents.
type Home struct {
	api API

	// Limit caps the recent list; 0 means DefaultRecentLimit.
	Limit int

	mu     sync.Mutex
	recent []docproc.Document
	total  int
	status Status
	err    string
}

// HomeState is a snapshot of the Home screen.
type HomeState struct {
	Recent  []docproc.Document
	Total   int
	Status  Status
	Loading bool
	Error   string
}

// NewHome creates the Home screen.
func NewHome(api API) *Home {
	return &Home{api: api}
}

// Load fetches the document list and keeps the newest documents.
func (h *Home) Load(ctx context.Context) error {
	h.mu.Lock()
	if h.status == Pending {
		h.mu.Unlock()
		return ErrBusy
	}
	h.status = Pending
	h.mu.Unlock()

	docs, err := h.api.ListDocuments(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.status = Failed
		h.err = docproc.ErrorMessage(err, docproc.MsgListFailed)
		return err
	}

	limit := h.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	recent := docproc.SortRecent(docs)
	if len(recent) > limit {
		recent = recent[:limit]
	}

	h.status = Succeeded
	h.recent = recent
	h.total = len(docs)
	h.err = ""
	return nil
}

// Snapshot returns the current state of the screen.
func (h *Home) Snapshot() HomeState {
	h.mu.Lock()
	defer h.mu.Unlock()

	return HomeState{
		Recent:  append([]docproc.Document(nil), h.recent...),
		Total:   h.total,
		Status:  h.status,
		Loading: h.status == Pending,
		Error:   h.err,
	}
}
