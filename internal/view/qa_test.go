package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-riddle/docproc-go"
)

func TestQA_Validation(t *testing.T) {
	api := newFakeAPI()
	q := NewQA(api)

	err := q.Submit(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, MsgEmptyQuestion, q.Snapshot().Error)
	assert.Equal(t, Idle, q.Snapshot().Status)
	assert.Zero(t, api.count("ask"))
}

func TestQA_EmptyAnswersRenderNothing(t *testing.T) {
	api := newFakeAPI()
	q := NewQA(api)

	require.NoError(t, q.Submit(context.Background(), "anything?"))

	st := q.Snapshot()
	assert.Equal(t, Succeeded, st.Status)
	assert.Empty(t, st.Answers)
	assert.Empty(t, st.Error)
}

func TestQA_AnswersAndCitations(t *testing.T) {
	api := newFakeAPI(doc(1, "contract.pdf", 1))
	api.answers = []docproc.AnswerItem{
		{DocID: "Answer", Content: "Payment is due in 30 days."},
		{DocID: "1", Content: "Net 30", Page: "2", Paragraph: "3"},
		{DocID: "Theme 1", Content: "Payment terms"},
	}
	q := NewQA(api)
	q.K = 3

	require.NoError(t, q.Submit(context.Background(), "When is payment due?"))
	assert.Equal(t, 3, api.lastK)

	st := q.Snapshot()
	require.Len(t, st.Answers, 3)
	assert.Equal(t, "When is payment due?", st.Question)

	assert.Error(t, q.OpenCitation(context.Background(), 0), "answer text is not a citation")
	assert.Error(t, q.OpenCitation(context.Background(), 2), "theme row is not a citation")
	require.NoError(t, q.OpenCitation(context.Background(), 1))

	mv := q.Detail.Snapshot()
	assert.Equal(t, 1, mv.DocID)
	assert.True(t, mv.IsHighlighted(2, 3))
	assert.False(t, mv.IsHighlighted(2, 2))
}

func TestQA_FailureKeepsAnswers(t *testing.T) {
	api := newFakeAPI()
	api.answers = []docproc.AnswerItem{{DocID: "Answer", Content: "first"}}
	q := NewQA(api)
	require.NoError(t, q.Submit(context.Background(), "one"))

	api.fail("ask", apiError(500, "LLM unavailable", docproc.MsgAskFailed))
	require.Error(t, q.Submit(context.Background(), "two"))

	st := q.Snapshot()
	assert.Equal(t, Failed, st.Status)
	assert.Equal(t, "LLM unavailable", st.Error)
	require.Len(t, st.Answers, 1)
	assert.Equal(t, "first", st.Answers[0].Content)
}

func TestQA_Label(t *testing.T) {
	api := newFakeAPI()
	q := NewQA(api)
	assert.Equal(t, "Submit Question", q.Snapshot().Label)

	gate := api.block()
	done := make(chan error, 1)
	go func() { done <- q.Submit(context.Background(), "slow?") }()

	require.NoError(t, waitFor(func() bool { return q.Snapshot().Loading }))
	assert.Equal(t, "Getting answer...", q.Snapshot().Label)

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, q.Snapshot().Loading)
}
