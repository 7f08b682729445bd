package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"field-service-api/internal/api/handlers"
	"field-service-api/internal/api/routes"
	"field-service-api/internal/auth"
	"field-service-api/internal/socket"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recorder is a hub connection that keeps every event it is sent.
type recorder struct {
	mu     sync.Mutex
	events []socket.Event
}

func (r *recorder) SetWriteDeadline(time.Time) error { return nil }

func (r *recorder) WriteMessage(_ int, data []byte) error {
	var ev socket.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) has(entity, action, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Entity == entity && ev.Action == action && (id == "" || ev.ID == id) {
			return true
		}
	}
	return false
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	stores *store.Stores
	events *recorder
}

type option func(*routes.Dependencies)

func withExporter(e handlers.Exporter) option {
	return func(d *routes.Dependencies) { d.Exporter = e }
}

func withAuth(tokens *auth.TokenManager) option {
	return func(d *routes.Dependencies) {
		d.Config.Auth.Enabled = true
		d.Config.Auth.LoginRPS = 1000
		d.Config.Auth.LoginBurst = 1000
		d.Tokens = tokens
	}
}

// newHarness serves the production router over a memory store.
func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	stores := store.NewStores(store.NewMemoryBackend())
	hub := socket.NewHub(log)
	t.Cleanup(hub.Close)
	events := &recorder{}
	hub.Register("recorder", events)

	deps := routes.Dependencies{Stores: stores, Hub: hub, Log: log}
	for _, opt := range opts {
		opt(&deps)
	}
	return &harness{t: t, router: routes.SetupRouter(deps), stores: stores, events: events}
}

// do sends body as JSON (nil for none) and returns the recorded response.
func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// expectEvent waits for the hub to deliver a matching event; an empty id
// matches any.
func (h *harness) expectEvent(entity, action, id string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.events.has(entity, action, id) },
		time.Second, 5*time.Millisecond, "no %s %s event", entity, action)
}

// create posts body and decodes the 201 response into T.
func create[T any](h *harness, path string, body any) T {
	h.t.Helper()
	w := h.do(http.MethodPost, path, body)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[T](h.t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["error"].(string)
}

// obj is a JSON object request body.
type obj = map[string]any
