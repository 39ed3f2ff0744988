package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/jason-riddle/docproc-go"
)

func restoreGlobals(t *testing.T) {
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestInitTracer_ExportsSpans(t *testing.T) {
	restoreGlobals(t)

	var buf bytes.Buffer
	shutdown, err := InitTracer(&buf, "docproc", "test")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "list-documents")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "list-documents")
	assert.Contains(t, out, "docproc")
}

func TestInitTracer_ClientPropagatesContext(t *testing.T) {
	restoreGlobals(t)

	traceparent := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent <- r.Header.Get("Traceparent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	shutdown, err := InitTracer(&buf, "docproc", "test")
	require.NoError(t, err)

	client := docproc.NewClient(server.URL, docproc.WithTracing())
	_, err = client.ListDocuments(context.Background())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	assert.NotEmpty(t, <-traceparent)
	assert.NotEmpty(t, buf.String())
}
