package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jason-riddle/docproc-go"
)

// NoResultsText is shown after a successful search with no hits.
const NoResultsText = "No results found"

// Search is the semantic search screen.
type Search struct {
	api API

	// K is the number of hits requested, 0 for the backend default.
	K int

	// Detail is the modal opened from a hit.
	Detail *Modal

	mu      sync.Mutex
	query   string
	results []docproc.SearchResult
	status  Status
	err     string
}

// ResultRow is a search hit with its display similarity.
type ResultRow struct {
	docproc.SearchResult
	Similarity string
}

// SearchState is a snapshot of the Search screen.
type SearchState struct {
	Query     string
	Results   []ResultRow
	Status    Status
	Loading   bool
	Label     string
	NoResults bool
	Error     string
}

// NewSearch creates the Search screen.
func NewSearch(api API) *Search {
	return &Search{api: api, Detail: NewModal(api)}
}

// Submit runs a search for query.
func (s *Search) Submit(ctx context.Context, query string) error {
	s.mu.Lock()
	if s.status == Pending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.query = query
	if strings.TrimSpace(query) == "" {
		s.status = Idle
		s.err = MsgEmptyQuery
		s.mu.Unlock()
		return &ValidationError{Message: MsgEmptyQuery}
	}
	s.status = Pending
	s.err = ""
	s.mu.Unlock()

	results, err := s.api.SearchWithOptions(ctx, query, &docproc.SearchOptions{K: s.K})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = Failed
		s.err = docproc.ErrorMessage(err, docproc.MsgSearchFailed)
		return err
	}

	s.status = Succeeded
	s.results = results
	s.err = ""
	return nil
}

// OpenResult opens the detail modal on the document hit i came from.
func (s *Search) OpenResult(ctx context.Context, i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.results) {
		s.mu.Unlock()
		return fmt.Errorf("no result %d", i)
	}
	r := s.results[i]
	s.mu.Unlock()

	id, hl, ok := ResultCitation(r)
	if !ok {
		return fmt.Errorf("result %d has no document id", i)
	}
	return s.Detail.OpenCitation(ctx, id, hl)
}

// Snapshot returns the current state of the screen.
func (s *Search) Snapshot() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]ResultRow, len(s.results))
	for i, r := range s.results {
		rows[i] = ResultRow{SearchResult: r, Similarity: docproc.FormatSimilarity(r.Distance)}
	}

	return SearchState{
		Query:     s.query,
		Results:   rows,
		Status:    s.status,
		Loading:   s.status == Pending,
		Label:     label(s.status, "Search", "Searching..."),
		NoResults: s.status == Succeeded && len(s.results) == 0,
		Error:     s.err,
	}
}
