package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crediflow/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"agent_response":"Hello Rohan","trace":{"step":"greet"}}`))
	}))
	defer srv.Close()

	session := chat.NewSession(chat.NewClient(srv.URL, time.Second, nil))
	in := strings.NewReader("hi\n\n/trace\n/quit\nnever sent\n")
	var out bytes.Buffer

	require.NoError(t, loop(context.Background(), session, in, &out))

	assert.Contains(t, out.String(), session.ID())
	assert.Contains(t, out.String(), chat.ThinkingIndicator)
	assert.Contains(t, out.String(), "[assistant] Hello Rohan")
	assert.Contains(t, out.String(), `"step": "greet"`)
	assert.Len(t, session.Messages(), 2)
}

func TestLoop_ShowsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	session := chat.NewSession(chat.NewClient(srv.URL, time.Second, nil))
	var out bytes.Buffer

	require.NoError(t, loop(context.Background(), session, strings.NewReader("hi\n"), &out))
	assert.Contains(t, out.String(), "error: HTTP error: 500 - internal error")
}
