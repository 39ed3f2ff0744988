package docproc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a backend time value. The backend emits ISO-8601 without a
// zone offset, so several layouts are accepted; zone-less values are UTC.
type Timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(parsed.UTC())
			return nil
		}
	}

	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time().IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time().Format(time.RFC3339Nano))
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// String returns the time in RFC3339.
func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339)
}

// Ref is an identifier the backend sends either as a JSON string or number,
// e.g. a doc_id of 12, "12" or "Answer".
type Ref string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*r = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ref: %w", err)
	}
	*r = Ref(n.String())
	return nil
}

// Int returns the reference as an integer, if it is one.
func (r Ref) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(r)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Document is a document summary as returned by the list endpoint.
type Document struct {
	ID        int       `json:"id"`
	Filename  string    `json:"filename"`
	FileType  string    `json:"file_type"`
	CreatedAt Timestamp `json:"created_at"`
}

// DocumentDetail is a document with its extracted pages.
type DocumentDetail struct {
	Document
	Pages []Page `json:"pages"`
}

// HasContent reports whether any page was extracted.
func (d *DocumentDetail) HasContent() bool {
	return d != nil && len(d.Pages) > 0
}

// Page is one extracted page of a document.
type Page struct {
	PageNumber int         `json:"page_number"`
	Content    string      `json:"content,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is one paragraph of a page.
type Paragraph struct {
	ParagraphNumber int    `json:"paragraph_number"`
	Content         string `json:"content"`
}

// SearchMetadata locates a search hit inside a document.
type SearchMetadata struct {
	DocID     Ref `json:"doc_id"`
	Page      Ref `json:"page"`
	Paragraph Ref `json:"paragraph,omitempty"`
	ChunkNum  Ref `json:"chunk_num,omitempty"`
}

// Location returns the numeric document location of the hit. Older backends
// report the paragraph as chunk_num.
func (m SearchMetadata) Location() (docID, page, paragraph int, ok bool) {
	docID, ok = m.DocID.Int()
	if !ok {
		return 0, 0, 0, false
	}
	page, _ = m.Page.Int()
	paragraph, found := m.Paragraph.Int()
	if !found {
		paragraph, _ = m.ChunkNum.Int()
	}
	return docID, page, paragraph, true
}

// SearchResult is a scored text snippet. Distance is a dissimilarity in [0,1].
type SearchResult struct {
	Text     string         `json:"text"`
	Distance float64        `json:"distance"`
	Metadata SearchMetadata `json:"metadata"`
}

// Similarity returns (1 - distance) * 100 rounded to one decimal place.
func (r SearchResult) Similarity() float64 {
	return Similarity(r.Distance)
}

// Similarity converts a distance into a percentage rounded to one decimal place.
func Similarity(distance float64) float64 {
	return math.Round((1-distance)*1000) / 10
}

// FormatSimilarity renders a distance as a percentage, e.g. "90.0%".
func FormatSimilarity(distance float64) string {
	return strconv.FormatFloat(Similarity(distance), 'f', 1, 64) + "%"
}

// AnswerItem is one row of a Q&A response. Rows whose DocID is not numeric
// (e.g. "Answer", "Theme 1") carry generated text rather than a citation.
type AnswerItem struct {
	DocID     Ref    `json:"doc_id"`
	Content   string `json:"content"`
	Page      Ref    `json:"page"`
	Paragraph Ref    `json:"paragraph"`
}

// Citation returns the document location the item cites.
func (a AnswerItem) Citation() (docID, page, paragraph int, ok bool) {
	docID, ok = a.DocID.Int()
	if !ok {
		return 0, 0, 0, false
	}
	page, _ = a.Page.Int()
	paragraph, _ = a.Paragraph.Int()
	return docID, page, paragraph, true
}

// UploadResult is the record the backend returns for an upload. Both the
// summary shape (id, file_type, created_at) and the confirmation shape
// (message, document_id) are accepted.
type UploadResult struct {
	ID         int       `json:"id,omitempty"`
	DocumentID int       `json:"document_id,omitempty"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
	Message    string    `json:"message,omitempty"`
}

// DocID returns the backend-assigned document id.
func (u *UploadResult) DocID() int {
	if u.ID != 0 {
		return u.ID
	}
	return u.DocumentID
}

// SortRecent returns a copy of docs ordered by descending creation time.
// Documents created at the same instant keep their backend order.
func SortRecent(docs []Document) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Time().After(out[j].CreatedAt.Time())
	})
	return out
}
