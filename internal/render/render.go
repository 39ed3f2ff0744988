// Package render writes view snapshots as plain text.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jason-riddle/docproc-go"
	"github.com/jason-riddle/docproc-go/internal/view"
)

// Names maps document ids to filenames for labelling citations.
type Names map[int]string

func (n Names) label(id int) string {
	if name, ok := n[id]; ok && name != "" {
		return fmt.Sprintf("%s (#%d)", name, id)
	}
	return fmt.Sprintf("document #%d", id)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func when(t docproc.Timestamp, now time.Time) string {
	if t.Time().IsZero() {
		return "-"
	}
	return humanize.RelTime(t.Time(), now, "ago", "from now")
}

// DocumentList writes docs as a table in the order given.
func DocumentList(w io.Writer, docs []docproc.Document, now time.Time) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No documents uploaded yet")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFILENAME\tTYPE\tUPLOADED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, d.Filename, d.FileType, when(d.CreatedAt, now))
	}
	return tw.Flush()
}

// Home writes the landing screen.
func Home(w io.Writer, s view.HomeState, now time.Time) error {
	fmt.Fprintln(w, "Document Research & Theme Identification")
	fmt.Fprintf(w, "%d %s in the library\n\n", s.Total, plural(s.Total, "document", "documents"))
	if s.Error != "" {
		_, err := fmt.Fprintf(w, "Error: %s\n", s.Error)
		return err
	}
	fmt.Fprintln(w, "Recent documents:")
	return DocumentList(w, s.Recent, now)
}

// Documents writes the document management screen.
func Documents(w io.Writer, s view.DocumentsState, now time.Time) error {
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
	if s.LastUpload != nil {
		if err := Upload(w, s.LastUpload); err != nil {
			return err
		}
	}
	return DocumentList(w, s.Documents, now)
}

// Upload writes the confirmation for an uploaded document.
func Upload(w io.Writer, r *docproc.UploadResult) error {
	msg := r.Message
	if msg == "" {
		msg = "Document uploaded successfully"
	}
	_, err := fmt.Fprintf(w, "%s: %s (id %d)\n", msg, r.Filename, r.DocID())
	return err
}

// UploadHint writes the accepted formats line shown next to the file picker.
func UploadHint(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Supported formats: %s\n", docproc.UploadHint())
	return err
}

// Search writes search hits with their similarity in backend order.
func Search(w io.Writer, s view.SearchState, names Names) error {
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}
	if s.NoResults {
		_, err := fmt.Fprintln(w, view.NoResultsText)
		return err
	}
	for i, r := range s.Results {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, r.Similarity, location(names, r.Metadata))
		fmt.Fprintf(w, "   %s\n", oneLine(r.Text))
	}
	return nil
}

func location(names Names, m docproc.SearchMetadata) string {
	id, page, para, ok := m.Location()
	if !ok {
		if m.DocID != "" {
			return string(m.DocID)
		}
		return "unknown document"
	}
	return fmt.Sprintf("%s, page %d, paragraph %d", names.label(id), page, para)
}

// Answers writes the rows in the order the backend returned them. The answer
// and each theme start a section, and the citations that follow a section are
// listed under it. An empty answer list writes nothing.
func Answers(w io.Writer, s view.QAState, names Names) error {
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}

	var tw *tabwriter.Writer
	flush := func() error {
		if tw == nil {
			return nil
		}
		err := tw.Flush()
		tw = nil
		return err
	}

	for i, a := range s.Answers {
		if isSection(a.DocID) {
			if err := flush(); err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s:\n%s\n", a.DocID, a.Content)
			continue
		}

		if tw == nil {
			if i == 0 {
				fmt.Fprintln(w, "Citations:")
			}
			tw = newTable(w)
		}
		id, page, para, ok := a.Citation()
		src := string(a.DocID)
		if ok {
			src = fmt.Sprintf("%s\tpage %d\tparagraph %d", names.label(id), page, para)
		} else {
			src += "\t\t"
		}
		fmt.Fprintf(tw, "  - %s\t%s\n", src, oneLine(a.Content))
	}
	return flush()
}

// isSection reports whether the row opens a new block of the answer: the
// answer itself or one of the themes. Rows between two sections support the
// one above them.
func isSection(id docproc.Ref) bool {
	return id == "Answer" || strings.HasPrefix(string(id), "Theme")
}

// Modal writes the detail modal. The highlighted paragraph is prefixed with
// "> ", every other paragraph is indented.
func Modal(w io.Writer, m view.ModalView) error {
	switch m.State {
	case view.Closed:
		return nil
	case view.LoadingContent:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case view.ModalFailed:
		_, err := fmt.Fprintf(w, "Error: %s\n", m.Error)
		return err
	}

	d := m.Detail
	if d == nil {
		return nil
	}
	fmt.Fprintf(w, "%s (#%d)\n", d.Filename, d.ID)
	if m.State == view.NoContent {
		_, err := fmt.Fprintln(w, "No content available")
		return err
	}

	for _, p := range d.Pages {
		fmt.Fprintf(w, "\n--- Page %d ---\n", p.PageNumber)
		if len(p.Paragraphs) == 0 {
			fmt.Fprintf(w, "  %s\n", p.Content)
			continue
		}
		for _, para := range p.Paragraphs {
			marker := "  "
			if m.IsHighlighted(p.PageNumber, para.ParagraphNumber) {
				marker = "> "
			}
			fmt.Fprintf(w, "%s[%d] %s\n", marker, para.ParagraphNumber, para.Content)
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
