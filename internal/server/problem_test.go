package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProblem(t *testing.T) {
	tests := []struct {
		name    string
		problem Problem
		want    map[string]any
	}{
		{
			name: "all fields",
			problem: Problem{
				Type:     ProblemTypeBlank,
				Title:    "Not Found",
				Status:   http.StatusNotFound,
				Detail:   "no route for GET /nope",
				Instance: "/nope",
			},
			want: map[string]any{
				"type":     "about:blank",
				"title":    "Not Found",
				"status":   float64(404),
				"detail":   "no route for GET /nope",
				"instance": "/nope",
			},
		},
		{
			name:    "optional fields omitted",
			problem: Problem{Type: ProblemTypeBlank, Title: "Internal Server Error", Status: 500},
			want: map[string]any{
				"type":   "about:blank",
				"title":  "Internal Server Error",
				"status": float64(500),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteProblem(w, tt.problem)

			assert.Equal(t, tt.problem.Status, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

			var got map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, "missing", "/test")

	require.Equal(t, http.StatusNotFound, w.Code)

	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, Problem{
		Type:     ProblemTypeBlank,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   "missing",
		Instance: "/test",
	}, p)
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(w, "POST is not supported on /metrics", "/metrics")

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	var p Problem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, Problem{
		Type:     ProblemTypeBlank,
		Title:    "Method Not Allowed",
		Status:   http.StatusMethodNotAllowed,
		Detail:   "POST is not supported on /metrics",
		Instance: "/metrics",
	}, p)
}
