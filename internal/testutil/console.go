package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ConsoleResponse is a canned reply of a FakeConsole route.
type ConsoleResponse struct {
	Status int
	Body   string
}

// FakeConsole is an httptest server standing in for the console API. Routes
// are keyed by escaped request path; unknown paths answer 404.
type FakeConsole struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]ConsoleResponse
	hits   map[string]int
	agents []string
}

// NewFakeConsole starts a FakeConsole that is closed when the test ends.
func NewFakeConsole(t testing.TB) *FakeConsole {
	t.Helper()
	f := &FakeConsole{
		routes: make(map[string]ConsoleResponse),
		hits:   make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Handle registers a response for path, replacing any earlier one.
func (f *FakeConsole) Handle(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = ConsoleResponse{Status: status, Body: body}
}

// Hits returns how many requests path has received.
func (f *FakeConsole) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// UserAgents returns the User-Agent of every request received, in order.
func (f *FakeConsole) UserAgents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.agents...)
}

func (f *FakeConsole) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()

	f.mu.Lock()
	f.hits[path]++
	f.agents = append(f.agents, r.UserAgent())
	resp, ok := f.routes[path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}
