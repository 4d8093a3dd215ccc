package poller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sync/src/helpers"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
	"market-sync/src/network"
)

// fakeClock advances instantly on After and records every wait.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.waits = append(f.waits, d)
	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeClock) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

type reply struct {
	status int
	body   string
	err    error
}

// scriptedNetwork answers from a script, repeating the last reply.
type scriptedNetwork struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	latency time.Duration
	clock   *fakeClock
	gate    chan struct{}
}

func (n *scriptedNetwork) Do(ctx context.Context, _ interfaces.OutboundRequest) (*interfaces.OutboundResponse, error) {
	if n.gate != nil {
		select {
		case <-n.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	n.mu.Lock()
	i := n.calls
	if i >= len(n.replies) {
		i = len(n.replies) - 1
	}
	r := n.replies[i]
	n.calls++
	n.mu.Unlock()

	if n.clock != nil && n.latency > 0 {
		n.clock.advance(n.latency)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &interfaces.OutboundResponse{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (n *scriptedNetwork) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// -----------------------------------------------------------------------------

func TestNextTransitions(t *testing.T) {
	d := Next(http.StatusOK, 0, InitialDelay)
	assert.Equal(t, StatusReady, d.Status)

	d = Next(http.StatusAccepted, 5*time.Second, InitialDelay)
	assert.Equal(t, StatusProcessing, d.Status)
	assert.Equal(t, InitialDelay, d.Wait)
	assert.Equal(t, 1500*time.Millisecond, d.NextDelay)

	d = Next(http.StatusAccepted, 0, 8*time.Second)
	assert.Equal(t, MaxDelay, d.NextDelay)

	d = Next(http.StatusAccepted, Budget+time.Millisecond, InitialDelay)
	assert.Equal(t, StatusError, d.Status)
	assert.True(t, d.Timeout)

	for _, code := range []int{http.StatusNoContent, http.StatusBadRequest, http.StatusInternalServerError} {
		d = Next(code, 0, InitialDelay)
		assert.Equal(t, StatusError, d.Status, code)
		assert.False(t, d.Timeout)
	}
}

func TestBackoffIsMonotonicAndCapped(t *testing.T) {
	delay := InitialDelay
	var elapsed time.Duration
	for elapsed <= Budget {
		d := Next(http.StatusAccepted, elapsed, delay)
		require.Equal(t, StatusProcessing, d.Status)
		assert.GreaterOrEqual(t, d.NextDelay, d.Wait)
		assert.LessOrEqual(t, d.NextDelay, MaxDelay)
		elapsed += d.Wait
		delay = d.NextDelay
	}
	assert.Equal(t, StatusError, Next(http.StatusAccepted, elapsed, delay).Status)
}

func TestReadyAfterProcessing(t *testing.T) {
	clock := newFakeClock()
	netw := &scriptedNetwork{replies: []reply{
		{status: http.StatusAccepted, body: `{"status":"processing","message":"warming up"}`},
		{status: http.StatusAccepted, body: `{"status":"processing"}`},
		{status: http.StatusOK, body: `[{"time":"t","holdValue":1,"strategyValue":2}]`},
	}}
	c := NewClient("http://dash", netw, WithClock(clock))

	var seen []State
	st, err := c.Run(context.Background(), ChartDataRequest("", "", ""), func(s State) { seen = append(seen, s) })
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)
	assert.Equal(t, 3, st.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, clock.recorded())

	var statuses []Status
	for _, s := range seen {
		statuses = append(statuses, s.Status)
	}
	assert.Equal(t, []Status{
		StatusRequesting, StatusProcessing,
		StatusRequesting, StatusProcessing,
		StatusRequesting, StatusReady,
	}, statuses)
	assert.Equal(t, "warming up", seen[1].Message)
}

func TestTimeoutWhileProcessing(t *testing.T) {
	clock := newFakeClock()
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusAccepted, body: `{}`}}, clock: clock, latency: 200 * time.Millisecond}
	c := NewClient("http://dash", netw, WithClock(clock))

	st, err := c.Run(context.Background(), NewsRequest(5))
	require.Error(t, err)
	assert.True(t, helpers.IsTimeoutError(err))
	assert.Equal(t, StatusError, st.Status)
	assert.GreaterOrEqual(t, st.Elapsed, Budget)
	assert.LessOrEqual(t, st.Elapsed, Budget+netw.latency)

	waits := clock.recorded()
	require.NotEmpty(t, waits)
	for i := 1; i < len(waits)-1; i++ {
		assert.GreaterOrEqual(t, waits[i], waits[i-1])
		assert.LessOrEqual(t, waits[i], MaxDelay)
	}
}

func TestTimeoutLandsOnBudget(t *testing.T) {
	clock := newFakeClock()
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusAccepted, body: `{}`}}}
	c := NewClient("http://dash", netw, WithClock(clock))

	st, err := c.Run(context.Background(), ChartDataRequest("", "", ""))
	assert.True(t, helpers.IsTimeoutError(err))
	assert.Equal(t, Budget, st.Elapsed)

	var total time.Duration
	waits := clock.recorded()
	for _, w := range waits {
		total += w
	}
	assert.Equal(t, Budget, total)
	assert.Less(t, waits[len(waits)-1], MaxDelay, "last wait is cut to the remaining budget")
}

func TestErrorStatusIsTerminal(t *testing.T) {
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusInternalServerError, body: `{"error":"boom"}`}}}
	c := NewClient("http://dash", netw, WithClock(newFakeClock()))

	st, err := c.Run(context.Background(), TickerRequest([]string{"BTC"}))
	var upErr *helpers.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusInternalServerError, upErr.Status)
	assert.Contains(t, upErr.Body, "boom")
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, 1, netw.count(), "errors are not retried")
}

func TestFailurePolicies(t *testing.T) {
	netw := &scriptedNetwork{replies: []reply{{err: errors.New("connection refused")}}}

	c := NewClient("http://dash", netw, WithClock(newFakeClock()), WithPolicy(EmptyOnError))
	items, err := FetchTicker(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	c = NewClient("http://dash", netw, WithClock(newFakeClock()), WithPolicy(FallbackOnError(func(Request) (any, error) {
		return []models.MNewsItem{{ID: "local-1", Title: "offline"}}, nil
	})))
	st, err := c.Run(context.Background(), NewsRequest(1))
	require.NoError(t, err)
	assert.True(t, st.Fallback)
	assert.Error(t, st.Err)
	assert.JSONEq(t, `[{"id":"local-1","title":"offline","abstract":"","timestamp":"","sentiment":""}]`, string(st.Data))

	c = NewClient("http://dash", netw, WithClock(newFakeClock()))
	_, err = FetchNews(context.Background(), c, 3)
	assert.True(t, helpers.IsUpstreamError(err))
}

func TestCancelledQueryNeverMutates(t *testing.T) {
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusOK, body: `["stale"]`}}, gate: make(chan struct{})}
	c := NewClient("http://dash", netw, WithClock(newFakeClock()))

	var mu sync.Mutex
	var seen []State
	q := c.Start(context.Background(), TickerRequest(nil), func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.Eventually(t, func() bool { return q.State().Status == StatusRequesting }, time.Second, time.Millisecond)
	q.Cancel()
	close(netw.gate)

	st, err := q.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, st.Cancelled)
	assert.Nil(t, st.Data)

	mu.Lock()
	defer mu.Unlock()
	for _, s := range seen {
		assert.NotEqual(t, StatusReady, s.Status)
	}
}

func TestSessionSupersedesPreviousQuery(t *testing.T) {
	gate := make(chan struct{})
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusOK, body: `[]`}}, gate: gate}
	c := NewClient("http://dash", netw, WithClock(newFakeClock()))
	s := NewSession(c)

	first := s.Start(context.Background(), ChartDataRequest("2025-01-01", "", ""))
	second := s.Start(context.Background(), ChartDataRequest("2025-02-01", "", ""))
	assert.Same(t, second, s.Current())
	close(gate)

	_, err := first.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	st, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)

	s.Close()
	assert.Nil(t, s.Start(context.Background(), NewsRequest(1)))
	assert.Nil(t, s.Current())
}

func TestSessionOnChangeAppliesToLaterQueries(t *testing.T) {
	gate := make(chan struct{})
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusOK, body: `[]`}}, gate: gate}
	c := NewClient("http://dash", netw, WithClock(newFakeClock()))
	s := NewSession(c)

	var mu sync.Mutex
	var seen []Status
	first := s.Start(context.Background(), NewsRequest(1))
	s.OnChange(func(st State) {
		mu.Lock()
		seen = append(seen, st.Status)
		mu.Unlock()
	})
	close(gate)

	_, err := first.Wait(context.Background())
	require.NoError(t, err)
	mu.Lock()
	assert.Empty(t, seen)
	mu.Unlock()

	second := s.Start(context.Background(), NewsRequest(2))
	_, err = second.Wait(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusRequesting, StatusReady}, seen)
}

func TestFetchChartDataUnwrapsRecords(t *testing.T) {
	netw := &scriptedNetwork{replies: []reply{
		{status: http.StatusAccepted, body: `{"status":"processing"}`},
		{status: http.StatusOK, body: `{"records":[{"time":"2025-01-01T00:00:00.000Z","holdValue":45000,"strategyValue":45100}]}`},
	}}
	c := NewClient("http://dash", netw, WithClock(newFakeClock()))

	points, err := FetchChartData(context.Background(), c, "2025-01-01", "2025-01-02", "BTC/USDT")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(45000), points[0].HoldValue)
	assert.Equal(t, int64(45100), points[0].StrategyValue)
	assert.Equal(t, 2, netw.count())
}

func TestParentContextCancellation(t *testing.T) {
	netw := &scriptedNetwork{replies: []reply{{status: http.StatusOK, body: `[]`}}, gate: make(chan struct{})}
	c := NewClient("http://dash", netw, WithClock(newFakeClock()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx, NewsRequest(1))
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAgainstHTTPServer(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		assert.Equal(t, "/api/ticker", r.URL.Path)
		assert.Equal(t, "BTC,ETH", r.URL.Query().Get("symbols"))
		if n == 1 {
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(models.MProcessingStatus{Status: "processing"})
			return
		}
		_, _ = w.Write([]byte(`{"records":[{"symbol":"BTC","pair":"BTC/USDT","price":"43250.00"}]}`))
	}))
	defer srv.Close()

	netMgr := network.NewAsyncNetworkManager(&models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 5}}, logger.NewNopLogger())
	c := NewClient(srv.URL, netMgr, WithClock(newFakeClock()))

	items, err := FetchTicker(context.Background(), c, []string{"BTC", "ETH"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "43250.00", items[0].Price.String())
}
