package interfaces

import (
	"context"
	"io"
)

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP with an explicit timeout.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Do performs exactly one request. A non-nil error means the transport failed;
	// any HTTP status, including non-2xx, is reported through the response.
	Do(ctx context.Context, req OutboundRequest) (*OutboundResponse, error)
}

// OutboundRequest describes a single upstream call.
type OutboundRequest struct {
	Method  string
	URL     string
	Query   map[string]string
	Headers map[string]string
	Body    io.Reader
}

// OutboundResponse is a fully read upstream answer.
type OutboundResponse struct {
	StatusCode int
	Body       []byte
}
