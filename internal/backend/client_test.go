// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/philquery/internal/citations"
	"github.com/pdiddy/philquery/internal/httputil"
	"github.com/pdiddy/philquery/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(types.BackendConfig{URL: ts.URL + "/", Timeout: 5 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(types.BackendConfig{URL: "  "}, nil)
	assert.Error(t, err)
}

func TestAskQuestion(t *testing.T) {
	var got askRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		cites, _ := json.Marshal([]map[string]any{
			{"citation_id": 1, "metadata": map[string]string{"source_title": "Leviathan", "author": "Hobbes", "url": "https://example.org/leviathan"}},
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"answer":    "**Sovereignty**\n\nHobbes argues...",
			"citations": string(cites),
		})
	})

	ans, err := c.AskQuestion(context.Background(), "What is sovereignty?", 7, types.ModeUnderstanding)
	require.NoError(t, err)

	assert.Equal(t, askRequest{Query: "What is sovereignty?", ChunkCount: 7, Mode: types.ModeUnderstanding}, got)
	assert.Equal(t, "**Sovereignty**\n\nHobbes argues...", ans.Text)
	assert.Equal(t, citations.KindJSON, ans.Citations.Kind)

	recs := citations.Parse(ans.Citations)
	require.Len(t, recs, 1)
	assert.Equal(t, "Leviathan", recs[0].Title)
}

func TestAskQuestionSourcesField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"answer":"passages","sources":["[1] Leviathan by Hobbes: (Excerpt: \"war\")"]}`))
	})

	ans, err := c.AskQuestion(context.Background(), "q", 5, types.ModeRetrieval)
	require.NoError(t, err)
	assert.Equal(t, citations.KindBracket, ans.Citations.Kind)
	assert.Len(t, citations.Parse(ans.Citations), 1)
}

func TestAskQuestionNoCitations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"answer":""}`))
	})

	ans, err := c.AskQuestion(context.Background(), "q", 5, types.ModeRetrieval)
	require.NoError(t, err)
	assert.Equal(t, "", ans.Text)
	assert.Equal(t, citations.KindNone, ans.Citations.Kind)
}

func TestAskQuestionValidatesBeforeIO(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	for _, n := range []int{0, 11, -1} {
		_, err := c.AskQuestion(context.Background(), "q", n, types.ModeUnderstanding)
		assert.ErrorIs(t, err, types.ErrInvalidChunkCount)
	}
	_, err := c.AskQuestion(context.Background(), "q", 5, types.QueryMode("bogus"))
	assert.ErrorIs(t, err, types.ErrInvalidMode)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAskQuestionServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"vector store offline"}`))
	})

	_, err := c.AskQuestion(context.Background(), "q", 5, types.ModeUnderstanding)
	var se *ServerError
	require.True(t, errors.As(err, &se), "got %T", err)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "vector store offline", se.Detail)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "questions are not retried")
}

func TestAskQuestionNotRetriedWhenBusy(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.AskQuestion(context.Background(), "q", 5, types.ModeUnderstanding)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAskQuestionUndecodableBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"missing answer", `{"citations":"[]"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.AskQuestion(context.Background(), "q", 5, types.ModeUnderstanding)
			var se *ServerError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestAskQuestionNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c, err := New(types.BackendConfig{URL: url, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = c.AskQuestion(context.Background(), "q", 5, types.ModeUnderstanding)
	var ne *NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestGetSources(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sources", r.URL.Path)
		w.Write([]byte(`[
			{"source_title":"Leviathan","author":"Thomas Hobbes","url":"https://example.org/leviathan"},
			{"source_title":"","author":"Nobody","url":"https://example.org/x"},
			{"source_title":"The Prince","author":"Machiavelli"},
			{"source_title":42,"author":"Numbers","url":"https://example.org/n"},
			"garbage",
			{"source_title":"Emile","author":"Rousseau","url":"https://example.org/emile"}
		]`))
	})

	got, err := c.GetSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.AvailableSource{
		{Title: "Leviathan", Author: "Thomas Hobbes", URL: "https://example.org/leviathan"},
		{Title: "Emile", Author: "Rousseau", URL: "https://example.org/emile"},
	}, got)
}

func TestGetSourcesRetriesWhenBusy(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"source_title":"Leviathan","author":"Hobbes","url":"https://example.org"}]`))
	})

	got, err := c.GetSources(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetSourcesServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := c.GetSources(context.Background())
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "boom", se.Detail)
}

func TestBearerToken(t *testing.T) {
	var auth []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/ask" {
			w.Write([]byte(`{"answer":"ok"}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(ts.Close)

	c, err := New(types.BackendConfig{URL: ts.URL, APIKey: " tok_123 "}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = c.AskQuestion(context.Background(), "q", 5, types.ModeRetrieval)
	require.NoError(t, err)
	_, err = c.GetSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer tok_123", "Bearer tok_123"}, auth)
}

func TestNoBearerTokenWithoutKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"answer":"ok"}`))
	})
	_, err := c.AskQuestion(context.Background(), "q", 5, types.ModeRetrieval)
	require.NoError(t, err)
}
