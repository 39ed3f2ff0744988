// Package export writes documents, search hits and answers to an Excel
// workbook, one sheet per kind.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jason-riddle/docproc-go"
)

// Sheet names.
const (
	SheetDocuments = "Documents"
	SheetSearch    = "Search Results"
	SheetAnswers   = "Answers"
)

const defaultSheet = "Sheet1"

// Workbook accumulates sheets. Call Close when done.
type Workbook struct {
	f      *excelize.File
	header int
	used   bool
}

// New returns an empty workbook.
func New() (*Workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &Workbook{f: f, header: header}, nil
}

// addSheet creates name with a bold header row. The first sheet reuses the
// workbook's default sheet so no empty sheet is left behind.
func (w *Workbook) addSheet(name string, headers []string, widths []float64) error {
	if !w.used {
		if err := w.f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		w.used = true
	} else {
		index, err := w.f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		w.f.SetActiveSheet(index)
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &row); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(name, "A1", last, w.header); err != nil {
		return err
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) setRow(sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

// AddDocuments writes one row per document.
func (w *Workbook) AddDocuments(docs []docproc.Document) error {
	if err := w.addSheet(SheetDocuments, []string{"ID", "Filename", "Type", "Uploaded"}, []float64{8, 40, 8, 22}); err != nil {
		return err
	}
	for i, d := range docs {
		uploaded := ""
		if !d.CreatedAt.Time().IsZero() {
			uploaded = d.CreatedAt.Time().Format("2006-01-02 15:04:05")
		}
		if err := w.setRow(SheetDocuments, i+2, d.ID, d.Filename, d.FileType, uploaded); err != nil {
			return err
		}
	}
	return nil
}

// AddSearchResults writes the query and its hits in backend order.
func (w *Workbook) AddSearchResults(query string, results []docproc.SearchResult) error {
	headers := []string{"Query", "Rank", "Similarity (%)", "Distance", "Document", "Page", "Paragraph", "Text"}
	if err := w.addSheet(SheetSearch, headers, []float64{20, 6, 14, 10, 10, 6, 10, 80}); err != nil {
		return err
	}
	for i, r := range results {
		para := r.Metadata.Paragraph
		if para == "" {
			para = r.Metadata.ChunkNum
		}
		err := w.setRow(SheetSearch, i+2,
			query, i+1, r.Similarity(), r.Distance,
			string(r.Metadata.DocID), string(r.Metadata.Page), string(para), r.Text)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddAnswers writes the question and every answer row as returned.
func (w *Workbook) AddAnswers(question string, answers []docproc.AnswerItem) error {
	headers := []string{"Question", "Source", "Page", "Paragraph", "Content"}
	if err := w.addSheet(SheetAnswers, headers, []float64{30, 14, 6, 10, 80}); err != nil {
		return err
	}
	for i, a := range answers {
		err := w.setRow(SheetAnswers, i+2,
			question, string(a.DocID), string(a.Page), string(a.Paragraph), a.Content)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTo writes the workbook as xlsx.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	return w.f.WriteTo(out)
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook's temporary files.
func (w *Workbook) Close() error {
	return w.f.Close()
}
