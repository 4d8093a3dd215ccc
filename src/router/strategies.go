package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"market-sync/src/chatbot"
	"market-sync/src/helpers"
	"market-sync/src/models"
	"market-sync/src/news"
	"market-sync/src/relay"
	"market-sync/src/simulator"
)

// -----------------------------------------------------------------------------
// Simulated
// -----------------------------------------------------------------------------

type simulatedChart struct {
	series *simulator.SeriesSimulator
}

func (s *simulatedChart) Chart(_ context.Context, q ChartQuery) (*Response, error) {
	start, end, err := s.series.Window(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	points, err := s.series.Generate(start, end)
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, Body: points}, nil
}

type simulatedNews struct {
	feed *news.Feed
}

func (s *simulatedNews) News(_ context.Context, limit int) (*Response, error) {
	return &Response{Status: http.StatusOK, Body: s.feed.Latest(limit)}, nil
}

type simulatedChat struct {
	responder chatbot.Responder
}

func (s *simulatedChat) Chat(ctx context.Context, req models.MChatRequest) (*Response, error) {
	resp, err := s.responder.Respond(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, Body: resp}, nil
}

// -----------------------------------------------------------------------------
// Relayed
// -----------------------------------------------------------------------------

type relayedChart struct {
	relay   *relay.Adapter
	baseURL string
}

func (s *relayedChart) Chart(ctx context.Context, q ChartQuery) (*Response, error) {
	query := map[string]string{}
	setIf(query, "startDateTime", q.Start)
	setIf(query, "endDateTime", q.End)
	setIf(query, "cryptoPair", q.CryptoPair)

	res, err := s.relay.Do(ctx, relay.Request{BaseURL: s.baseURL, Path: "/api/chart-data", Query: query})
	if err != nil {
		return nil, err
	}
	return &Response{Status: res.Status, Body: res.Body}, nil
}

type relayedNews struct {
	relay   *relay.Adapter
	baseURL string
}

func (s *relayedNews) News(ctx context.Context, limit int) (*Response, error) {
	res, err := s.relay.Do(ctx, relay.Request{
		BaseURL: s.baseURL,
		Path:    "/api/news",
		Query:   map[string]string{"limit": strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	return &Response{Status: res.Status, Body: res.Body}, nil
}

type relayedChat struct {
	relay   *relay.Adapter
	baseURL string
}

func (s *relayedChat) Chat(ctx context.Context, req models.MChatRequest) (*Response, error) {
	res, err := s.relay.Do(ctx, relay.Request{
		BaseURL: s.baseURL,
		Path:    "/api/chatbot",
		Method:  http.MethodPost,
		Body:    req,
	})
	if err != nil {
		return nil, err
	}
	return &Response{Status: res.Status, Body: res.Body}, nil
}

// relayedTicker decodes the upstream list so the stream and the control plane
// can use it like any other ticker source.
type relayedTicker struct {
	relay   *relay.Adapter
	baseURL string
}

func (s *relayedTicker) Name() string {
	return "relay"
}

func (s *relayedTicker) Tickers(ctx context.Context, symbols []string) ([]models.MTickerItem, error) {
	query := map[string]string{}
	setIf(query, "symbols", strings.Join(symbols, ","))

	res, err := s.relay.Do(ctx, relay.Request{BaseURL: s.baseURL, Path: "/api/ticker", Query: query})
	if err != nil {
		return nil, err
	}
	if res.Status != http.StatusOK {
		return nil, helpers.NewUpstreamError("relay", res.Status, string(res.Body), nil)
	}

	var items []models.MTickerItem
	if err := json.Unmarshal(res.Body, &items); err != nil {
		return nil, helpers.NewUpstreamError("relay", res.Status, string(res.Body), err)
	}
	if items == nil {
		items = []models.MTickerItem{}
	}
	return items, nil
}

// -----------------------------------------------------------------------------

func setIf(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
