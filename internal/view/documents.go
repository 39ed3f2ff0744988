package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jason-riddle/docproc-go"
)

// DeletePrompt is the question asked before a document is deleted.
const DeletePrompt = "Are you sure you want to delete this document?"

// File is a file chosen for upload.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileFromPath describes the file at path. The file is opened only when the
// upload starts.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("stat upload: %s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Documents is the document management screen: list, upload, delete and a
// detail modal.
type Documents struct {
	api     API
	confirm Confirmer

	// Detail is the document detail modal.
	Detail *Modal

	mu           sync.Mutex
	docs         []docproc.Document
	selected     *File
	listStatus   Status
	uploadStatus Status
	deleteStatus Status
	deleting     bool
	lastUpload   *docproc.UploadResult
	err          string
}

// DocumentsState is a snapshot of the Documents screen.
type DocumentsState struct {
	Documents    []docproc.Document
	SelectedFile string
	Warnings     []string
	ListStatus   Status
	UploadStatus Status
	DeleteStatus Status
	Uploading    bool
	UploadLabel  string
	LastUpload   *docproc.UploadResult
	Error        string
}

// NewDocuments creates the Documents screen. confirm is asked before every
// delete.
func NewDocuments(api API, confirm Confirmer) *Documents {
	return &Documents{
		api:     api,
		confirm: confirm,
		Detail:  NewModal(api),
	}
}

// Load fetches the document list, replacing the current one on success.
func (d *Documents) Load(ctx context.Context) error {
	d.mu.Lock()
	d.listStatus = Pending
	d.mu.Unlock()

	return d.refresh(ctx)
}

func (d *Documents) refresh(ctx context.Context) error {
	docs, err := d.api.ListDocuments(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.listStatus = Failed
		d.err = docproc.ErrorMessage(err, docproc.MsgListFailed)
		return err
	}

	d.listStatus = Succeeded
	d.docs = docs
	d.err = ""
	return nil
}

// SelectFile chooses the file the next Upload sends. A File without a name
// or an Open func clears the selection.
func (d *Documents) SelectFile(f File) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if f.Name == "" || f.Open == nil {
		d.selected = nil
		return
	}
	d.selected = &f
}

// ClearFile drops the selected file.
func (d *Documents) ClearFile() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.selected = nil
}

// Upload sends the selected file and then refetches the whole list.
func (d *Documents) Upload(ctx context.Context) error {
	d.mu.Lock()
	if d.uploadStatus == Pending {
		d.mu.Unlock()
		return ErrBusy
	}
	if d.selected == nil {
		d.uploadStatus = Idle
		d.err = MsgNoFile
		d.mu.Unlock()
		return &ValidationError{Message: MsgNoFile}
	}
	file := *d.selected
	d.uploadStatus = Pending
	d.err = ""
	d.mu.Unlock()

	res, err := d.upload(ctx, file)

	d.mu.Lock()
	if err != nil {
		d.uploadStatus = Failed
		d.err = docproc.ErrorMessage(err, docproc.MsgUploadFailed)
		d.mu.Unlock()
		return err
	}
	d.uploadStatus = Succeeded
	d.lastUpload = res
	d.selected = nil
	d.err = ""
	d.listStatus = Pending
	d.mu.Unlock()

	return d.refresh(ctx)
}

func (d *Documents) upload(ctx context.Context, f File) (*docproc.UploadResult, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	return d.api.UploadDocument(ctx, f.Name, rc)
}

// Delete asks for confirmation and deletes document id, then refetches the
// whole list. A declined prompt returns ErrCancelled without a request.
func (d *Documents) Delete(ctx context.Context, id int) error {
	// deleting covers the prompt as well as the request.
	d.mu.Lock()
	if d.deleting {
		d.mu.Unlock()
		return ErrBusy
	}
	d.deleting = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.deleting = false
		d.mu.Unlock()
	}()

	if d.confirm == nil || !d.confirm.Confirm(DeletePrompt) {
		return ErrCancelled
	}

	d.mu.Lock()
	d.deleteStatus = Pending
	d.err = ""
	d.mu.Unlock()

	err := d.api.DeleteDocument(ctx, id)

	d.mu.Lock()
	if err != nil {
		d.deleteStatus = Failed
		d.err = docproc.ErrorMessage(err, docproc.MsgDeleteFailed)
		d.mu.Unlock()
		return err
	}
	d.deleteStatus = Succeeded
	d.listStatus = Pending
	d.mu.Unlock()

	return d.refresh(ctx)
}

// Recent returns the listed documents newest first.
func (d *Documents) Recent() []docproc.Document {
	d.mu.Lock()
	defer d.mu.Unlock()

	return docproc.SortRecent(d.docs)
}

// Snapshot returns the current state of the screen.
func (d *Documents) Snapshot() DocumentsState {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := DocumentsState{
		Documents:    append([]docproc.Document(nil), d.docs...),
		ListStatus:   d.listStatus,
		UploadStatus: d.uploadStatus,
		DeleteStatus: d.deleteStatus,
		Uploading:    d.uploadStatus == Pending,
		UploadLabel:  label(d.uploadStatus, "Upload", "Uploading..."),
		LastUpload:   d.lastUpload,
		Error:        d.err,
	}
	if d.selected != nil {
		s.SelectedFile = d.selected.Name
		s.Warnings = docproc.CheckUpload(d.selected.Name, d.selected.Size)
	}
	return s
}
