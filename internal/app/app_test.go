package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecube/internal/config"
	apierrors "pricecube/internal/errors"
	"pricecube/internal/operations"
	"pricecube/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.RateLimit.Enabled = false
	cfg.Pricing.Rows = 400
	return cfg
}

func newTestApp(t *testing.T) (*Application, *httptest.Server) {
	t.Helper()
	app, err := NewApplication(context.Background(), testConfig(t), testLogger())
	require.NoError(t, err)
	server := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		server.Close()
		app.Close(context.Background())
	})
	return app, server
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func createRun(t *testing.T, baseURL, body string) domain.RunInfo {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var info domain.RunInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	return info
}

func TestApplication_Routes(t *testing.T) {
	_, server := newTestApp(t)

	resp, body := get(t, server.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	info := createRun(t, server.URL, `{"source":"generate","seed":11}`)
	assert.Equal(t, 400, info.Rows, "rows default to the configuration")

	resp, body = get(t, server.URL+"/api/runs/latest/recap")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var recap domain.OptimizationRecap
	require.NoError(t, json.Unmarshal([]byte(body), &recap))
	assert.Greater(t, recap.CurrentRevenue, 0.0)

	resp, _ = get(t, server.URL+"/api/products/clusters")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, server.URL+"/api/operations/"+info.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"completed"`)

	resp, body = get(t, server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "pricing_runs")
	assert.Contains(t, body, "http_requests")
}

func TestApplication_ErrorRoutes(t *testing.T) {
	_, server := newTestApp(t)

	resp, body := get(t, server.URL+"/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, apierrors.TypeNotFound)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/health", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, body = get(t, server.URL+"/api/runs/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no runs yet")
	assert.Contains(t, body, apierrors.TypeNotFound)
}

func TestApplication_WebSocketProgress(t *testing.T) {
	app, server := newTestApp(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.WebSocketHub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	info := createRun(t, server.URL, `{"source":"generate","rows":300}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg struct {
			Type    string `json:"type"`
			Subject string `json:"subject"`
			Status  string `json:"status"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == operations.EventOperationSnapshot && msg.Subject == info.ID &&
			msg.Status == string(operations.OperationStatusCompleted) {
			break
		}
	}
}

func TestApplication_UnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "cassandra"
	_, err := NewApplication(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestApplication_StartStop(t *testing.T) {
	app, err := NewApplication(context.Background(), testConfig(t), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(context.Background()))
}

func TestJanitorInterval(t *testing.T) {
	assert.Equal(t, time.Minute, janitorInterval(time.Hour))
	assert.Equal(t, 15*time.Second, janitorInterval(time.Minute))
}
