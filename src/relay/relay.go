// Package relay forwards dashboard requests to a configured upstream server.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"market-sync/src/helpers"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
)

const sourceName = "relay"

// Request is one relayed call. Body is only sent for POST.
type Request struct {
	BaseURL string
	Path    string
	Method  string
	Query   map[string]string
	Body    any
}

// Result is a successful upstream answer. Status is the upstream 2xx code so a
// 202 "processing" answer reaches the caller unchanged.
type Result struct {
	Status int
	Body   json.RawMessage
}

type Adapter struct {
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAdapter(netMgr interfaces.INetworkManager, log *logger.Logger) *Adapter {
	return &Adapter{Network: netMgr, Logger: log}
}

// -----------------------------------------------------------------------------

// Do issues exactly one request. Retrying is left to the polling client.
func (a *Adapter) Do(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.BaseURL) == "" {
		return nil, helpers.NewConfigurationError("remote server for %s is not configured", req.Path)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, helpers.NewValidationError("unsupported relay method %s", req.Method)
	}

	out := interfaces.OutboundRequest{
		Method: method,
		URL:    strings.TrimRight(req.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/"),
		Query:  req.Query,
	}
	if method == http.MethodPost && req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, helpers.NewProcessingError(err, "failed to encode relay body for %s", req.Path)
		}
		out.Body = bytes.NewReader(payload)
	}

	resp, err := a.Network.Do(ctx, out)
	if err != nil {
		a.Logger.Error("Relay %s %s failed: %v", method, req.Path, err)
		return nil, helpers.NewUpstreamError(sourceName, 0, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.Logger.Error("Relay %s %s returned %d: %s", method, req.Path, resp.StatusCode, string(resp.Body))
		return nil, helpers.NewUpstreamError(sourceName, resp.StatusCode, string(resp.Body), nil)
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return &Result{Status: resp.StatusCode, Body: json.RawMessage("null")}, nil
	}
	if !json.Valid(body) {
		a.Logger.Error("Relay %s %s returned a non-JSON body", method, req.Path)
		return nil, helpers.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	return &Result{Status: resp.StatusCode, Body: Unwrap(body)}, nil
}

// -----------------------------------------------------------------------------

// Unwrap returns the inner array of a {"records": [...]} envelope and any other
// body unchanged.
func Unwrap(body json.RawMessage) json.RawMessage {
	if len(body) == 0 || body[0] != '{' {
		return body
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}

	records, ok := envelope["records"]
	if !ok {
		return body
	}
	records = bytes.TrimSpace(records)
	if len(records) == 0 || records[0] != '[' {
		return body
	}

	return records
}
