package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/logging"
	"github.com/james-see/autokalimba/pkg/steno"
	"github.com/james-see/autokalimba/pkg/strum"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *kalimba.Player) {
	t.Helper()
	logger := logging.Discard()
	ctrl := kalimba.NewController(kalimba.NewRegistry(kalimba.Catalog()), nil, kalimba.DefaultSettings(), logger)
	player := kalimba.NewPlayer(ctrl, kalimba.DefaultKeyBindings(), steno.DefaultBindings, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		player.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return NewRouter(player, logger), player
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func isActive(t *testing.T, p *kalimba.Player, name string) bool {
	t.Helper()
	active, err := p.IsActive(context.Background(), name)
	require.NoError(t, err)
	return active
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := do(t, r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := gin.DefaultWriter
	gin.DefaultWriter = &buf
	defer func() { gin.DefaultWriter = prev }()

	r, _ := newTestRouter(t)
	do(t, r, http.MethodGet, "/api/v1/targets", "")
	assert.Contains(t, buf.String(), "/api/v1/targets")
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodOptions, "/api/v1/pointer/down", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListTargets(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/targets", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Targets []kalimba.TargetState `json:"targets"`
	}
	decode(t, w, &body)
	assert.Len(t, body.Targets, len(kalimba.Catalog()))
}

func TestGetTarget(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/targets/m7", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state map[string]any
	decode(t, w, &state)
	assert.Equal(t, "m7", state["name"])
	assert.Equal(t, "chord", state["kind"])
	assert.Equal(t, false, state["active"])

	w = do(t, r, http.MethodGet, "/api/v1/targets/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPointerDownUp(t *testing.T) {
	r, p := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/pointer/down", `{"pointer":40,"target":"c"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, true, body["started"])
	assert.True(t, isActive(t, p, "c"))

	// second pointer on the same target does not retrigger
	w = do(t, r, http.MethodPost, "/api/v1/pointer/down", `{"pointer":41,"target":"c"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, false, body["started"])

	w = do(t, r, http.MethodPost, "/api/v1/pointer/up", `{"pointer":40}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, isActive(t, p, "c"))
}

func TestPointerValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"steno range id", "/api/v1/pointer/down", `{"pointer":3,"target":"c"}`, http.StatusBadRequest},
		{"missing pointer", "/api/v1/pointer/down", `{"target":"c"}`, http.StatusBadRequest},
		{"missing target", "/api/v1/pointer/down", `{"pointer":40}`, http.StatusBadRequest},
		{"unknown target", "/api/v1/pointer/down", `{"pointer":40,"target":"zz"}`, http.StatusNotFound},
		{"bad json", "/api/v1/pointer/down", `{`, http.StatusBadRequest},
		{"up steno range id", "/api/v1/pointer/up", `{"pointer":0}`, http.StatusBadRequest},
		{"up missing pointer", "/api/v1/pointer/up", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestKeyDownUp(t *testing.T) {
	r, p := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/key/down", `{"key":"i"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, isActive(t, p, "m7"))

	w = do(t, r, http.MethodPost, "/api/v1/key/down", `{"key":"i","repeat":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, false, body["started"])

	w = do(t, r, http.MethodPost, "/api/v1/key/up", `{"key":"i"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, isActive(t, p, "m7"))

	w = do(t, r, http.MethodPost, "/api/v1/key/down", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStenoAndRelease(t *testing.T) {
	r, p := newTestRouter(t)

	// bit 0 (MSB) is S, bound to db
	w := do(t, r, http.MethodPost, "/api/v1/steno", `{"bits":2147483648}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, isActive(t, p, "db"))

	w = do(t, r, http.MethodPost, "/api/v1/pointer/down", `{"pointer":50,"target":"7"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/release", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, isActive(t, p, "db"))
	assert.False(t, isActive(t, p, "7"))

	w = do(t, r, http.MethodPost, "/api/v1/steno", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings(t *testing.T) {
	r, p := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got settingsResponse
	decode(t, w, &got)
	assert.Equal(t, -8, got.LowestBassNote)
	assert.Equal(t, "40ms", got.StrumDelay)
	assert.Equal(t, strum.StyleUp, got.StrumStyle)
	assert.NotEmpty(t, got.LowestBassName)

	w = do(t, r, http.MethodPut, "/api/v1/settings", `{"strumDelay":"10ms","strumStyle":"random"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, -8, got.LowestBassNote, "omitted field kept")
	assert.Equal(t, strum.StyleRandom, got.StrumStyle)

	s, err := p.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, s.StrumDelay)

	for _, body := range []string{`{"strumDelay":"-1ms"}`, `{"strumDelay":"x"}`, `{"strumStyle":"sideways"}`} {
		w = do(t, r, http.MethodPut, "/api/v1/settings", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestStoppedPlayer(t *testing.T) {
	logger := logging.Discard()
	ctrl := kalimba.NewController(kalimba.NewRegistry(kalimba.Catalog()), nil, kalimba.DefaultSettings(), logger)
	player := kalimba.NewPlayer(ctrl, nil, nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	player.Run(ctx)

	w := do(t, NewRouter(player, logger), http.MethodGet, "/api/v1/targets", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
