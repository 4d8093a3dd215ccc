package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"market-sync/src/helpers"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
)

// maxBodyBytes bounds how much of an upstream answer is buffered.
const maxBodyBytes = 8 << 20

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(cfg.Network.Proxies, cfg.Network.UserAgent),
		Logger:       log,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
		// next client built (after a restart of this manager) picks the next proxy
		nm.ProxyManager.RotateProxy()
	}

	return &http.Client{
		Transport: transport,
		Timeout:   nm.timeout(),
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) timeout() time.Duration {
	if nm.Config.Network.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(nm.Config.Network.RequestTimeout) * time.Second
}

// -----------------------------------------------------------------------------

// Do performs exactly one request; retry policy belongs to the caller.
func (nm *AsyncNetworkManager) Do(ctx context.Context, out interfaces.OutboundRequest) (*interfaces.OutboundResponse, error) {
	reqURL, err := url.Parse(out.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", out.URL, err)
	}

	if len(out.Query) > 0 {
		q := reqURL.Query()
		for k, v := range out.Query {
			q.Set(k, v)
		}
		reqURL.RawQuery = q.Encode()
	}

	method := out.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), out.Body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")
	if out.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range out.Headers {
		req.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Warning("%s %s failed after %v: %v", method, reqURL.Redacted(), time.Since(started), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream body: %w", err)
	}

	nm.Logger.Debug("%s %s -> %d in %v", method, reqURL.Redacted(), resp.StatusCode, time.Since(started))

	return &interfaces.OutboundResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
