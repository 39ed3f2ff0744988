package docproc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SearchOptions configures Search and Ask.
type SearchOptions struct {
	K int // Number of chunks to retrieve, 0 means backend default
}

func (o *SearchOptions) apply(q url.Values) {
	if o != nil && o.K > 0 {
		q.Set("k", strconv.Itoa(o.K))
	}
}

// Search runs a semantic search and returns hits in backend order.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return c.SearchWithOptions(ctx, query, nil)
}

// SearchWithOptions is Search with a result count.
func (c *Client) SearchWithOptions(ctx context.Context, query string, opts *SearchOptions) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	opts.apply(q)

	var result []SearchResult
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/search", query: q}, &result); err != nil {
		return nil, wrapError(err, "Search", MsgSearchFailed)
	}

	return result, nil
}

// Ask asks a question about the uploaded documents. The answer rows are
// returned in backend order.
func (c *Client) Ask(ctx context.Context, question string) ([]AnswerItem, error) {
	return c.AskWithOptions(ctx, question, nil)
}

// AskWithOptions is Ask with a retrieval count.
func (c *Client) AskWithOptions(ctx context.Context, question string, opts *SearchOptions) ([]AnswerItem, error) {
	q := url.Values{}
	q.Set("question", question)
	opts.apply(q)

	var result []AnswerItem
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/ask", query: q}, &result); err != nil {
		return nil, wrapError(err, "Ask", MsgAskFailed)
	}

	return result, nil
}
