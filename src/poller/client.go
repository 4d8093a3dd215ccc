package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"market-sync/src/helpers"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
)

// Request names the endpoint and query of one poll.
type Request struct {
	Path  string
	Query map[string]string
}

// Client issues polled queries against one base URL.
type Client struct {
	BaseURL string
	Network interfaces.INetworkManager
	Clock   Clock
	Policy  FailurePolicy
	Logger  *logger.Logger
}

type Option func(*Client)

func WithClock(c Clock) Option { return func(cl *Client) { cl.Clock = c } }

func WithPolicy(p FailurePolicy) Option { return func(cl *Client) { cl.Policy = p } }

func WithLogger(l *logger.Logger) Option { return func(cl *Client) { cl.Logger = l } }

// -----------------------------------------------------------------------------

func NewClient(baseURL string, netMgr interfaces.INetworkManager, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Clock:   realClock{},
		Policy:  SurfaceError,
		Logger:  logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// -----------------------------------------------------------------------------

// Start launches a query in the background. Observers see every state change
// in order, from the query's own goroutine.
func (c *Client) Start(ctx context.Context, req Request, observers ...func(State)) *Query {
	ctx, cancel := context.WithCancel(ctx)
	q := &Query{
		client:    c,
		req:       req,
		cancel:    cancel,
		observers: observers,
		done:      make(chan struct{}),
		state:     State{Status: StatusIdle, Delay: InitialDelay},
	}
	go q.run(ctx)
	return q
}

// Run polls until the query settles and returns its final state.
func (c *Client) Run(ctx context.Context, req Request, observers ...func(State)) (State, error) {
	q := c.Start(ctx, req, observers...)
	return q.Wait(context.Background())
}

// -----------------------------------------------------------------------------
// Query
// -----------------------------------------------------------------------------

type Query struct {
	client    *Client
	req       Request
	cancel    context.CancelFunc
	observers []func(State)
	done      chan struct{}

	mu    sync.Mutex
	state State
}

// State returns the current snapshot.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Done is closed when the query has settled or was cancelled.
func (q *Query) Done() <-chan struct{} {
	return q.done
}

// Cancel stops the query. Once cancelled, nothing the in-flight work produces
// is applied.
func (q *Query) Cancel() {
	q.mu.Lock()
	q.state.Cancelled = true
	q.mu.Unlock()
	q.cancel()
}

// Wait blocks until the query settles. A cancelled query reports
// context.Canceled; an ERROR query reports its error.
func (q *Query) Wait(ctx context.Context) (State, error) {
	select {
	case <-q.done:
	case <-ctx.Done():
		return q.State(), ctx.Err()
	}

	st := q.State()
	switch {
	case st.Cancelled, st.Status != StatusReady && st.Status != StatusError:
		return st, context.Canceled
	case st.Status == StatusError:
		return st, st.Err
	}
	return st, nil
}

// -----------------------------------------------------------------------------

// set applies fn unless the query was cancelled, then notifies observers.
func (q *Query) set(fn func(*State)) bool {
	q.mu.Lock()
	if q.state.Cancelled {
		q.mu.Unlock()
		return false
	}
	fn(&q.state)
	snapshot := q.state
	q.mu.Unlock()

	for _, obs := range q.observers {
		obs(snapshot)
	}
	return true
}

// -----------------------------------------------------------------------------

func (q *Query) run(ctx context.Context) {
	defer close(q.done)
	defer q.cancel()

	clock := q.client.Clock
	started := clock.Now()
	delay := InitialDelay

	for {
		elapsed := clock.Now().Sub(started)
		if elapsed >= Budget {
			q.fail(elapsed, helpers.NewTimeoutError("%s still processing after %v", q.req.Path, Budget))
			return
		}

		if !q.set(func(s *State) {
			s.Status = StatusRequesting
			s.Elapsed = elapsed
			s.Attempts++
		}) {
			return
		}

		resp, err := q.client.Network.Do(ctx, interfaces.OutboundRequest{
			Method: http.MethodGet,
			URL:    q.client.BaseURL + q.req.Path,
			Query:  q.req.Query,
		})
		elapsed = clock.Now().Sub(started)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			q.fail(elapsed, helpers.NewUpstreamError("server", 0, "", err))
			return
		}

		d := Next(resp.StatusCode, elapsed, delay)
		switch d.Status {
		case StatusReady:
			body := bytes.TrimSpace(resp.Body)
			if !json.Valid(body) {
				q.fail(elapsed, helpers.NewProcessingError(nil, "%s returned a body that is not JSON", q.req.Path))
				return
			}
			q.set(func(s *State) {
				s.Status = StatusReady
				s.Elapsed = elapsed
				s.Data = json.RawMessage(body)
				s.Err = nil
			})
			return

		case StatusProcessing:
			wait := min(d.Wait, Budget-elapsed)
			if !q.set(func(s *State) {
				s.Status = StatusProcessing
				s.Elapsed = elapsed
				s.Delay = wait
				s.Message = processingMessage(resp.Body)
			}) {
				return
			}
			q.client.Logger.Debug("%s processing, retrying in %v", q.req.Path, wait)

			select {
			case <-clock.After(wait):
			case <-ctx.Done():
				return
			}
			delay = d.NextDelay

		default:
			if d.Timeout {
				q.fail(elapsed, helpers.NewTimeoutError("%s still processing after %v", q.req.Path, Budget))
				return
			}
			q.fail(elapsed, helpers.NewUpstreamError("server", resp.StatusCode, string(resp.Body), nil))
			return
		}
	}
}

// -----------------------------------------------------------------------------

// fail settles the query through the client's failure policy.
func (q *Query) fail(elapsed time.Duration, err error) {
	q.client.Logger.Warning("%s failed: %v", q.req.Path, err)

	policy := q.client.Policy
	if policy == nil {
		policy = SurfaceError
	}

	if data, ok := policy(q.req, err); ok {
		q.set(func(s *State) {
			s.Status = StatusReady
			s.Elapsed = elapsed
			s.Data = data
			s.Err = err
			s.Fallback = true
		})
		return
	}

	q.set(func(s *State) {
		s.Status = StatusError
		s.Elapsed = elapsed
		s.Err = err
	})
}

func processingMessage(body []byte) string {
	var st models.MProcessingStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return ""
	}
	return st.Message
}
