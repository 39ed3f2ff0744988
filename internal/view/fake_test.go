package view

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jason-riddle/docproc-go"
)

// fakeAPI is an in-memory backend. Calls are recorded by name; gate, when
// set, blocks every call until it is closed.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	docs    map[int]docproc.Document
	details map[int]*docproc.DocumentDetail
	nextID  int

	search  []docproc.SearchResult
	answers []docproc.AnswerItem
	lastK   int

	failWith map[string]error
	gate     chan struct{}
}

func newFakeAPI(docs ...docproc.Document) *fakeAPI {
	f := &fakeAPI{
		docs:     make(map[int]docproc.Document),
		details:  make(map[int]*docproc.DocumentDetail),
		failWith: make(map[string]error),
		nextID:   100,
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeAPI) enter(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate := f.gate
	err := f.failWith[name]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith[name] = err
}

func (f *fakeAPI) block() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeAPI) ListDocuments(ctx context.Context) ([]docproc.Document, error) {
	if err := f.enter("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]docproc.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAPI) GetDocument(ctx context.Context, id int) (*docproc.DocumentDetail, error) {
	if err := f.enter("get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if d, ok := f.details[id]; ok {
		return d, nil
	}
	if d, ok := f.docs[id]; ok {
		return &docproc.DocumentDetail{Document: d}, nil
	}
	return nil, &docproc.Error{StatusCode: 404, Detail: "Document not found", Message: "Document not found"}
}

func (f *fakeAPI) DeleteDocument(ctx context.Context, id int) error {
	if err := f.enter("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.docs, id)
	return nil
}

func (f *fakeAPI) UploadDocument(ctx context.Context, filename string, r io.Reader) (*docproc.UploadResult, error) {
	if err := f.enter("upload"); err != nil {
		return nil, err
	}
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.docs[f.nextID] = docproc.Document{
		ID:        f.nextID,
		Filename:  filename,
		CreatedAt: docproc.Timestamp(time.Now()),
	}
	return &docproc.UploadResult{DocumentID: f.nextID, Filename: filename}, nil
}

func (f *fakeAPI) SearchWithOptions(ctx context.Context, query string, opts *docproc.SearchOptions) ([]docproc.SearchResult, error) {
	if err := f.enter("search"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if opts != nil {
		f.lastK = opts.K
	}
	return f.search, nil
}

func (f *fakeAPI) AskWithOptions(ctx context.Context, question string, opts *docproc.SearchOptions) ([]docproc.AnswerItem, error) {
	if err := f.enter("ask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if opts != nil {
		f.lastK = opts.K
	}
	return f.answers, nil
}

func apiError(status int, detail, fallback string) error {
	msg := fallback
	if detail != "" {
		msg = detail
	}
	return &docproc.Error{StatusCode: status, Detail: detail, Message: msg}
}

func doc(id int, name string, day int) docproc.Document {
	return docproc.Document{
		ID:        id,
		Filename:  name,
		FileType:  "pdf",
		CreatedAt: docproc.Timestamp(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)),
	}
}

func memFile(name, content string) File {
	return File{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(cond func() bool) error {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("condition not met")
}
