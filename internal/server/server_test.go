package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/statehub/internal/auth"
	"github.com/vyrodovalexey/statehub/internal/config"
	"github.com/vyrodovalexey/statehub/internal/model"
	"github.com/vyrodovalexey/statehub/internal/store"
)

func testConfig(port int, metrics bool) *config.Config {
	return &config.Config{
		ServerPort:      port,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		MetricsEnabled:  metrics,
		AuthMode:        "none",
		IDField:         config.DefaultIDField,
	}
}

func newTestServer(t *testing.T, authenticator auth.Authenticator) (*Server, *httptest.Server) {
	t.Helper()

	srv := New(testConfig(8080, true), zap.NewNop(), store.NewMemoryStore(0), authenticator)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		srv.wsHandler.CloseAllConnections()
		ts.Close()
	})

	return srv, ts
}

func request(t *testing.T, method, url, body string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestNew(t *testing.T) {
	// Act
	server := New(testConfig(8080, true), zap.NewNop(), store.NewMemoryStore(0), nil)

	// Assert
	if server == nil {
		t.Fatal("New() returned nil")
	}
	if server.router == nil || server.httpServer == nil || server.wsHandler == nil {
		t.Errorf("server not fully initialized: %+v", server)
	}
	if server.Router() != server.router {
		t.Error("Router() should return the server's router")
	}
}

func TestNew_Metrics(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    int
	}{
		{name: "enabled", enabled: true, want: http.StatusOK},
		{name: "disabled", enabled: false, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			server := New(testConfig(8080, tt.enabled), zap.NewNop(), store.NewMemoryStore(0), nil)
			rr := httptest.NewRecorder()

			// Act
			server.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			// Assert
			if rr.Code != tt.want {
				t.Errorf("Metrics endpoint status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestServer_HealthAndReady(t *testing.T) {
	// Arrange
	server := New(testConfig(8080, false), zap.NewNop(), store.NewMemoryStore(0), nil)

	for _, path := range []string{"/health", "/ready"} {
		rr := httptest.NewRecorder()

		// Act
		server.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		// Assert
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want %d", path, rr.Code, http.StatusOK)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s should carry a request ID", path)
		}
	}
}

func TestServer_ReadyDuringShutdown(t *testing.T) {
	// Arrange
	server := New(testConfig(8092, false), zap.NewNop(), store.NewMemoryStore(0), nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Act
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	// Assert
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	// Arrange
	authenticator, err := auth.NewAPIKeyAuthenticator("k:svc")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}
	server := New(testConfig(8080, false), zap.NewNop(), store.NewMemoryStore(0), authenticator)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/states", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()

	// Act
	server.router.ServeHTTP(rr, req)

	// Assert
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), auth.APIKeyHeader) {
		t.Error("CORS should allow the API key header")
	}
}

func TestServer_AuthEnforced(t *testing.T) {
	// Arrange
	authenticator, err := auth.NewAPIKeyAuthenticator("read-key:dashboard,write-key:worker:write")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}
	_, ts := newTestServer(t, authenticator)
	body := `{"name":"cart","kind":"array"}`

	tests := []struct {
		name   string
		method string
		key    string
		want   int
	}{
		{name: "no key", method: http.MethodGet, want: http.StatusUnauthorized},
		{name: "wrong key", method: http.MethodGet, key: "nope", want: http.StatusUnauthorized},
		{name: "reader lists", method: http.MethodGet, key: "read-key", want: http.StatusOK},
		{name: "reader cannot create", method: http.MethodPost, key: "read-key", want: http.StatusForbidden},
		{name: "writer creates", method: http.MethodPost, key: "write-key", want: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers[auth.APIKeyHeader] = tt.key
			}

			// Act
			resp := request(t, tt.method, ts.URL+"/api/v1/states", body, headers)

			// Assert
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	if resp := request(t, http.MethodGet, ts.URL+"/health", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want public access", resp.StatusCode)
	}
}

func TestServer_MutationsArePushedToSubscribers(t *testing.T) {
	// Arrange
	_, ts := newTestServer(t, nil)

	resp := request(t, http.MethodPost, ts.URL+"/api/v1/states", `{"name":"cart","kind":"array"}`, nil)
	var created model.APIResponse[model.State]
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	id := created.Data.ID

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?state_id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	// Act
	resp = request(t, http.MethodPost, ts.URL+"/api/v1/states/"+id+"/items", `{"item":"apple"}`, nil)

	// Assert
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item status = %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event model.StateEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if event.Type != model.EventTypeCommitted || event.StateID != id || event.Version != 2 {
		t.Errorf("event = %+v", event)
	}
	if arr, ok := event.Value.([]any); !ok || len(arr) != 1 || arr[0] != "apple" {
		t.Errorf("event value = %#v, want [apple]", event.Value)
	}
}

func TestServer_MutationOutcomesAreMeasured(t *testing.T) {
	// Arrange
	_, ts := newTestServer(t, nil)

	resp := request(t, http.MethodPost, ts.URL+"/api/v1/states", `{"name":"basket","kind":"array","value":["pear"]}`, nil)
	var created model.APIResponse[model.State]
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	items := ts.URL + "/api/v1/states/" + created.Data.ID + "/items"

	// Act
	committed := request(t, http.MethodPost, items, `{"item":"plum"}`, nil)
	rejected := request(t, http.MethodPost, items, `{"item":"pear"}`, nil)
	metrics := request(t, http.MethodGet, ts.URL+"/metrics", "", nil)

	// Assert
	if committed.StatusCode != http.StatusOK || rejected.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("statuses = %d, %d", committed.StatusCode, rejected.StatusCode)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(metrics.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{
		`statehub_mutations_total{kind="",operation="add_item",outcome="committed"}`,
		`statehub_mutations_total{kind="membership",operation="add_item",outcome="rejected"}`,
		`statehub_http_requests_total{code="422",operation="add_item"}`,
	} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestServer_HTTPServerConfiguration(t *testing.T) {
	// Arrange
	server := New(testConfig(9999, false), zap.NewNop(), store.NewMemoryStore(0), nil)

	// Assert
	if server.httpServer.Addr != ":9999" {
		t.Errorf("Addr = %s, want :9999", server.httpServer.Addr)
	}
	if server.httpServer.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("ReadHeaderTimeout = %v, want 5s", server.httpServer.ReadHeaderTimeout)
	}
	if server.httpServer.MaxHeaderBytes != 1<<20 {
		t.Errorf("MaxHeaderBytes = %d, want %d", server.httpServer.MaxHeaderBytes, 1<<20)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	// Arrange
	server := New(testConfig(18090, false), zap.NewNop(), store.NewMemoryStore(0), nil)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	time.Sleep(100 * time.Millisecond)

	// Act
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(ctx)

	// Assert
	if err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if startErr := <-errCh; startErr != nil {
		t.Errorf("Start() error = %v", startErr)
	}
}
