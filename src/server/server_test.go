package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sync/src/chatbot"
	"market-sync/src/config"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
	"market-sync/src/news"
	"market-sync/src/relay"
	"market-sync/src/router"
	"market-sync/src/simulator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

type failingNetwork struct{}

func (failingNetwork) Do(context.Context, interfaces.OutboundRequest) (*interfaces.OutboundResponse, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *APIServer {
	t.Helper()
	cfg := &config.Config{MConfig: config.Defaults()}
	cfg.CorsOrigins = []string{"http://localhost:3000"}
	cfg.Endpoints.Ticker.Mode = config.ModeSimulated
	if mutate != nil {
		mutate(cfg)
	}

	log := logger.NewNopLogger()
	r, err := router.New(cfg, router.Deps{
		Series:    simulator.NewSeriesSimulator(simulator.NewSeededRand(1), func() time.Time { return fixedNow }),
		Ticker:    simulator.NewTickerSimulator(nil, simulator.NewSeededRand(1)),
		Relay:     relay.NewAdapter(failingNetwork{}, log),
		News:      news.NewFeed(nil),
		Responder: chatbot.NewKeywordResponder(nil),
	}, log)
	require.NoError(t, err)

	s := NewAPIServer(cfg.MConfig, r, log)
	s.Now = func() time.Time { return fixedNow }
	return s
}

func get(t *testing.T, s *APIServer, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestChartData(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(t, s, "/api/chart-data?startDateTime=2025-01-01T00:00&endDateTime=2025-01-02T00:00&cryptoPair=BTC/USDT")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var points []models.MChartDataPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 24)
	assert.Equal(t, "2025-01-01T00:00:00.000Z", points[0].Time)

	w = get(t, s, "/api/chart-data?startDateTime=garbage")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestRelayedFailureIsFlattened(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.UseActualServer = true
		c.RemoteServers.Server1 = "http://upstream.internal"
	})

	w := get(t, s, "/api/chart-data")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to fetch data from upstream service"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "upstream.internal")

	s = newTestServer(t, func(c *config.Config) { c.UseActualServer = true })
	w = get(t, s, "/api/news")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"service is not configured for this request"}`, w.Body.String())
}

func TestNewsLimit(t *testing.T) {
	s := newTestServer(t, nil)

	for target, want := range map[string]int{
		"/api/news":          10,
		"/api/news?limit=3":  3,
		"/api/news?limit=50": 10,
		"/api/news?limit=x":  10,
	} {
		w := get(t, s, target)
		require.Equal(t, http.StatusOK, w.Code, target)
		var items []models.MNewsItem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		assert.Len(t, items, want, target)
	}
}

func TestTickerFilter(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(t, s, "/api/ticker?symbols=BTC,ETH")
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.MTickerItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "BTC", items[0].Symbol)
	assert.Equal(t, "ETH", items[1].Symbol)
	assert.Contains(t, w.Body.String(), `"price":"`)

	w = get(t, s, "/api/ticker")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, len(simulator.DefaultBaseQuotes))
}

func TestChatbot(t *testing.T) {
	s := newTestServer(t, nil)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chatbot", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		s.Handler().ServeHTTP(w, req)
		return w
	}

	w := post(`{"message":"bitcoin rally","history":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.MChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
	assert.NotEmpty(t, resp.Timestamp)

	w = post(`{"history":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"message is required"}`, w.Body.String())

	w = post(`not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndCors(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(t, s, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","timestamp":"2025-01-02T00:00:00.000Z"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/api/ticker", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// -----------------------------------------------------------------------------

func readFrame(t *testing.T, conn *websocket.Conn) models.MTickerFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame models.MTickerFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketStream(t *testing.T) {
	s := newTestServer(t, nil)
	go s.handleWebsockets()
	defer s.Stop()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readFrame(t, conn)
	assert.Equal(t, "INITIAL", initial.Type)
	assert.Empty(t, initial.Items)

	require.NoError(t, conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", Symbols: []string{"eth"}}))
	assert.Equal(t, "INITIAL", readFrame(t, conn).Type)

	s.Broadcast(&models.MTickerFrame{
		Type:      "UPDATE",
		Timestamp: 42,
		Items: []models.MTickerItem{
			{Symbol: "BTC", Price: models.NewPrice(1, 2)},
			{Symbol: "ETH", Price: models.NewPrice(2, 2)},
		},
	})

	update := readFrame(t, conn)
	assert.Equal(t, "UPDATE", update.Type)
	assert.Equal(t, int64(42), update.Timestamp)
	require.Len(t, update.Items, 1)
	assert.Equal(t, "ETH", update.Items[0].Symbol)
}

// -----------------------------------------------------------------------------

type recordingSink struct {
	mu     sync.Mutex
	frames []*models.MTickerFrame
}

func (r *recordingSink) Broadcast(f *models.MTickerFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}
func (r *recordingSink) Start() error { return nil }
func (r *recordingSink) Stop() error  { return nil }

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestTickerStreamer(t *testing.T) {
	sink := &recordingSink{}
	src := simulator.NewTickerSimulator(nil, simulator.NewSeededRand(2))
	st := NewTickerStreamer(src, sink, 5*time.Millisecond, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "UPDATE", sink.frames[0].Type)
	assert.Len(t, sink.frames[0].Items, len(simulator.DefaultBaseQuotes))
}
