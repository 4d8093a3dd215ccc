package poller

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"market-sync/src/helpers"
	"market-sync/src/models"
	"market-sync/src/relay"
)

// Fetch runs req to completion and decodes the answer into T. Envelopes of
// the form {"records": [...]} are unwrapped first.
func Fetch[T any](ctx context.Context, c *Client, req Request) (T, State, error) {
	var out T

	st, err := c.Run(ctx, req)
	if err != nil {
		return out, st, err
	}

	if err := json.Unmarshal(relay.Unwrap(st.Data), &out); err != nil {
		return out, st, helpers.NewProcessingError(err, "failed to decode %s", req.Path)
	}
	return out, st, nil
}

// -----------------------------------------------------------------------------

const (
	PathChartData = "/api/chart-data"
	PathTicker    = "/api/ticker"
	PathNews      = "/api/news"
)

func ChartDataRequest(start, end, cryptoPair string) Request {
	q := map[string]string{}
	setIf(q, "startDateTime", start)
	setIf(q, "endDateTime", end)
	setIf(q, "cryptoPair", cryptoPair)
	return Request{Path: PathChartData, Query: q}
}

func TickerRequest(symbols []string) Request {
	q := map[string]string{}
	setIf(q, "symbols", strings.Join(symbols, ","))
	return Request{Path: PathTicker, Query: q}
}

func NewsRequest(limit int) Request {
	q := map[string]string{}
	if limit > 0 {
		q["limit"] = strconv.Itoa(limit)
	}
	return Request{Path: PathNews, Query: q}
}

// -----------------------------------------------------------------------------

func FetchChartData(ctx context.Context, c *Client, start, end, cryptoPair string) ([]models.MChartDataPoint, error) {
	points, _, err := Fetch[[]models.MChartDataPoint](ctx, c, ChartDataRequest(start, end, cryptoPair))
	return points, err
}

func FetchTicker(ctx context.Context, c *Client, symbols []string) ([]models.MTickerItem, error) {
	items, _, err := Fetch[[]models.MTickerItem](ctx, c, TickerRequest(symbols))
	return items, err
}

func FetchNews(ctx context.Context, c *Client, limit int) ([]models.MNewsItem, error) {
	items, _, err := Fetch[[]models.MNewsItem](ctx, c, NewsRequest(limit))
	return items, err
}

func setIf(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
