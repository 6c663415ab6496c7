package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/trestle/internal/config"
	"github.com/chazu/trestle/pkg/assembly"
)

const chairComponents = `[
  {"name": "Chair_Seat", "operations": [{"operation": "mesh.build_box_mesh",
    "params": {"width": 0.5, "depth": 0.5, "height": 0.05}, "transform": {"location": [0, 0, 0.475]}}]},
  {"name": "Chair_Leg_1", "operations": [{"operation": "mesh.build_box_mesh",
    "params": {"width": 0.04, "depth": 0.04, "height": 0.45}, "transform": {"location": [0.2, 0.2, 0.225]}}]},
  {"name": "Chair_Leg_2", "operations": [{"operation": "mesh.build_box_mesh",
    "params": {"width": 0.04, "depth": 0.04, "height": 0.45}, "transform": {"location": [-0.2, 0.2, 0.225]}}]},
  {"name": "Chair_Leg_3", "operations": [{"operation": "mesh.build_box_mesh",
    "params": {"width": 0.04, "depth": 0.04, "height": 0.45}, "transform": {"location": [0.2, -0.2, 0.225]}}]},
  {"name": "Chair_Leg_4", "operations": [{"operation": "mesh.build_box_mesh",
    "params": {"width": 0.04, "depth": 0.04, "height": 0.45}, "transform": {"location": [-0.2, -0.2, 0.225]}}]},
  {"name": "Chair_Backrest", "operations": [{"operation": "mesh.build_box_mesh",
    "params": {"width": 0.5, "depth": 0.05, "height": 0.5}, "transform": {"location": [0, -0.225, 0.9]}}]}
]`

func newTestServer() *Server {
	cfg := config.Default().Server
	cfg.RulesTimeout = config.Duration{Duration: 200 * time.Millisecond}
	return New(cfg, assembly.DefaultOptions(), nil)
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

type validateResponse struct {
	Components []struct {
		Name string `json:"name"`
	} `json:"components"`
	Graph struct {
		Nodes []string `json:"nodes"`
		Edges []struct {
			A string `json:"a"`
			B string `json:"b"`
		} `json:"edges"`
	} `json:"graph"`
	Report assembly.Report `json:"report"`
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestValidateChair(t *testing.T) {
	rec := post(t, newTestServer(), "/v1/validate", `{"components": `+chairComponents+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Components, 6)
	assert.NotEmpty(t, resp.Report.RunID)
	assert.False(t, resp.Report.HasErrors())
	assert.NotEmpty(t, resp.Report.Adjustments, "backrest should have been snapped")

	touching := false
	for _, e := range resp.Graph.Edges {
		if (e.A == "Chair_Backrest" && e.B == "Chair_Seat") || (e.A == "Chair_Seat" && e.B == "Chair_Backrest") {
			touching = true
		}
	}
	assert.True(t, touching, "backrest does not touch seat: %v", resp.Graph.Edges)
}

func TestValidateWithRules(t *testing.T) {
	body := map[string]any{
		"components": json.RawMessage(chairComponents),
		"rules":      `(radial (names-matching "leg")) (angle-tolerance-deg 1)`,
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)

	rec := post(t, newTestServer(), "/v1/validate", string(data))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Four legs on a square are evenly spaced around their centroid.
	assert.False(t, resp.Report.HasErrors(), "%v", resp.Report.Errors())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"components": [`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"no components", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unnamed component", `{"components": [{"operations": []}]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad rules", `{"components": [], "rules": "(mirror \"a\")"}`, http.StatusBadRequest, "INVALID_RULES"},
		{"runaway rules", `{"components": [], "rules": "(for [(def i 0) true (set i (+ i 1))] i)"}`, http.StatusRequestTimeout, "TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(), "/v1/validate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, string(body.Error.Code))
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRunawayRulesExhaustEvaluations(t *testing.T) {
	cfg := config.Default().Server
	cfg.RulesTimeout = config.Duration{Duration: 50 * time.Millisecond}
	cfg.MaxRuleEvals = 1
	s := New(cfg, assembly.DefaultOptions(), nil)

	runaway := `{"components": [], "rules": "(for [(def i 0) true (set i (+ i 1))] i)"}`
	rec := post(t, s, "/v1/validate", runaway)
	require.Equal(t, http.StatusRequestTimeout, rec.Code, rec.Body.String())

	rec = post(t, s, "/v1/validate", `{"components": `+chairComponents+`, "rules": "(rerun true)"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "BUSY", string(body.Error.Code))

	rec = post(t, s, "/v1/validate", `{"components": `+chairComponents+`}`)
	assert.Equal(t, http.StatusOK, rec.Code, "requests without rules are unaffected")
}

func TestGraph(t *testing.T) {
	s := newTestServer()
	body := `{"components": ` + chairComponents + `}`

	rec := post(t, s, "/v1/graph", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	assert.Contains(t, rec.Body.String(), `"Chair_Backrest" -- "Chair_Seat";`)

	rec = post(t, s, "/v1/graph?format=svg", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = post(t, s, "/v1/graph?format=png", body)
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := config.Default().Server
	cfg.Addr = addr
	s := New(cfg, assembly.DefaultOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
