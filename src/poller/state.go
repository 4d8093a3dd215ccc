// Package poller is the client side of the dashboard protocol: it keeps asking
// an endpoint while the answer is "processing", backing off between attempts,
// within a fixed time budget and with cancellation.
package poller

import (
	"encoding/json"
	"net/http"
	"time"
)

// Status is the lifecycle position of one query.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusRequesting Status = "REQUESTING"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusError      Status = "ERROR"
)

const (
	InitialDelay  = time.Second
	MaxDelay      = 10 * time.Second
	Budget        = 120 * time.Second
	BackoffFactor = 1.5
)

// State is a snapshot of a query. Data is set once the query is READY.
type State struct {
	Status    Status
	Delay     time.Duration
	Elapsed   time.Duration
	Attempts  int
	Message   string
	Data      json.RawMessage
	Err       error
	Fallback  bool
	Cancelled bool
}

// -----------------------------------------------------------------------------

// Decision is the outcome of one answer: the next status and, while
// processing, how long to wait and the delay to use after that.
type Decision struct {
	Status    Status
	Wait      time.Duration
	NextDelay time.Duration
	Timeout   bool
}

// Next maps an HTTP status to the following state. It has no side effects:
// elapsed is the time spent since the query started and delay the current
// backoff.
func Next(status int, elapsed, delay time.Duration) Decision {
	switch status {
	case http.StatusOK:
		return Decision{Status: StatusReady}
	case http.StatusAccepted:
		if elapsed > Budget {
			return Decision{Status: StatusError, Timeout: true}
		}
		return Decision{Status: StatusProcessing, Wait: delay, NextDelay: nextDelay(delay)}
	}
	return Decision{Status: StatusError}
}

func nextDelay(delay time.Duration) time.Duration {
	next := time.Duration(float64(delay) * BackoffFactor)
	if next > MaxDelay {
		return MaxDelay
	}
	return next
}
