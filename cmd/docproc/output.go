package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jason-riddle/docproc-go"
	"github.com/jason-riddle/docproc-go/internal/view"
)

// DocumentOutput is a document summary as printed by the CLI.
type DocumentOutput struct {
	ID        int    `json:"id"`
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	CreatedAt string `json:"created_at"`
}

// DocumentListOutput represents the output for the docs command
type DocumentListOutput struct {
	Count   int              `json:"count"`
	Results []DocumentOutput `json:"results"`
}

// HomeOutput represents the output for the home command
type HomeOutput struct {
	Total  int              `json:"total"`
	Recent []DocumentOutput `json:"recent"`
}

// DetailOutput is a document with its pages, plus the highlighted location
// when opened from a citation.
type DetailOutput struct {
	DocumentOutput
	Pages     []docproc.Page  `json:"pages"`
	HasText   bool            `json:"has_content"`
	Highlight *view.Highlight `json:"highlight,omitempty"`
}

// UploadOutput represents the output for the upload command
type UploadOutput struct {
	Upload    *docproc.UploadResult `json:"upload"`
	Warnings  []string              `json:"warnings,omitempty"`
	Documents DocumentListOutput    `json:"documents"`
}

// SearchResultOutput is one search hit with its similarity resolved.
type SearchResultOutput struct {
	Similarity string  `json:"similarity"`
	Distance   float64 `json:"distance"`
	Text       string  `json:"text"`
	DocID      string  `json:"doc_id"`
	Filename   string  `json:"filename,omitempty"`
	Page       string  `json:"page"`
	Paragraph  string  `json:"paragraph"`
}

// SearchOutput represents the output for the search command
type SearchOutput struct {
	Query   string               `json:"query"`
	Count   int                  `json:"count"`
	Results []SearchResultOutput `json:"results"`
}

// AnswerOutput is one answer row with the cited filename resolved.
type AnswerOutput struct {
	DocID     string `json:"doc_id"`
	Filename  string `json:"filename,omitempty"`
	Page      string `json:"page,omitempty"`
	Paragraph string `json:"paragraph,omitempty"`
	Content   string `json:"content"`
}

// AskOutput represents the output for the ask command
type AskOutput struct {
	Question string         `json:"question"`
	Answers  []AnswerOutput `json:"answers"`
}

func convertDocToOutput(d docproc.Document) DocumentOutput {
	created := ""
	if !d.CreatedAt.Time().IsZero() {
		created = d.CreatedAt.Time().Format(time.RFC3339)
	}
	return DocumentOutput{
		ID:        d.ID,
		Filename:  d.Filename,
		FileType:  d.FileType,
		CreatedAt: created,
	}
}

func convertDocsToOutput(docs []docproc.Document) DocumentListOutput {
	results := make([]DocumentOutput, len(docs))
	for i, d := range docs {
		results[i] = convertDocToOutput(d)
	}
	return DocumentListOutput{Count: len(docs), Results: results}
}

func convertDetailToOutput(m view.ModalView) DetailOutput {
	out := DetailOutput{Highlight: m.Highlight}
	if m.Detail != nil {
		out.DocumentOutput = convertDocToOutput(m.Detail.Document)
		out.Pages = m.Detail.Pages
		out.HasText = m.Detail.HasContent()
	}
	if out.Pages == nil {
		out.Pages = []docproc.Page{}
	}
	return out
}

func convertSearchToOutput(s view.SearchState, names map[int]string) SearchOutput {
	results := make([]SearchResultOutput, len(s.Results))
	for i, r := range s.Results {
		para := r.Metadata.Paragraph
		if para == "" {
			para = r.Metadata.ChunkNum
		}
		out := SearchResultOutput{
			Similarity: r.Similarity,
			Distance:   r.Distance,
			Text:       r.Text,
			DocID:      string(r.Metadata.DocID),
			Page:       string(r.Metadata.Page),
			Paragraph:  string(para),
		}
		if id, ok := r.Metadata.DocID.Int(); ok {
			out.Filename = names[id]
		}
		results[i] = out
	}
	return SearchOutput{Query: s.Query, Count: len(results), Results: results}
}

func convertAnswersToOutput(s view.QAState, names map[int]string) AskOutput {
	answers := make([]AnswerOutput, len(s.Answers))
	for i, a := range s.Answers {
		out := AnswerOutput{
			DocID:     string(a.DocID),
			Page:      string(a.Page),
			Paragraph: string(a.Paragraph),
			Content:   a.Content,
		}
		if id, _, _, ok := a.Citation(); ok {
			out.Filename = names[id]
		}
		answers[i] = out
	}
	return AskOutput{Question: s.Question, Answers: answers}
}

// outputJSON writes data as indented JSON
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
