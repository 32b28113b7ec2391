package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Call records one request received by a fake API server.
type Call struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   map[string]any
}

// APIServer is a fake remote API backed by httptest.
type APIServer struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call
}

// NewAPIServer starts a fake API serving routes keyed by "METHOD /path".
// Unknown routes answer 404 with a JSON error body. The server is closed when
// the test finishes.
func NewAPIServer(t *testing.T, routes map[string]http.HandlerFunc) *APIServer {
	t.Helper()

	api := &APIServer{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		if handler, ok := routes[r.Method+" "+r.URL.Path]; ok {
			handler(w, r)
			return
		}
		WriteJSON(w, http.StatusNotFound, map[string]any{"error": "no route for " + r.URL.Path})
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *APIServer) record(r *http.Request) {
	call := Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  make(map[string]string),
		Header: r.Header.Clone(),
	}
	for key := range r.URL.Query() {
		call.Query[key] = r.URL.Query().Get(key)
	}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &call.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))
	}

	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
}

// Calls returns the requests received so far, in arrival order.
func (a *APIServer) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// JSON returns a handler answering with status and body encoded as JSON.
func JSON(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	}
}

// WriteJSON writes body as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteFile writes content under dir, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
