// Package pricefeed fetches live quotes from a CoinGecko-compatible markets API.
package pricefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"market-sync/src/helpers"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
)

const (
	sourceName    = "pricefeed"
	apiKeyHeader  = "x-cg-demo-api-key"
	marketsPath   = "/coins/markets"
	quoteCurrency = "USDT"
	pricePlaces   = 2
	changeLimit   = 10.0
)

// Coin maps a provider coin id to the display symbol.
type Coin struct {
	ID     string
	Symbol string
}

// DefaultCoins is the fixed id table; its order is the output order for an
// unfiltered request.
var DefaultCoins = []Coin{
	{ID: "bitcoin", Symbol: "BTC"},
	{ID: "ethereum", Symbol: "ETH"},
	{ID: "binancecoin", Symbol: "BNB"},
	{ID: "solana", Symbol: "SOL"},
	{ID: "ripple", Symbol: "XRP"},
	{ID: "cardano", Symbol: "ADA"},
	{ID: "dogecoin", Symbol: "DOGE"},
	{ID: "avalanche-2", Symbol: "AVAX"},
}

// -----------------------------------------------------------------------------
// Factory
// -----------------------------------------------------------------------------

// Factory owns the single shared Client. The client is built on first use so a
// missing credential only fails the requests that need it.
type Factory struct {
	Config    models.MPriceFeedConfig
	Network   interfaces.INetworkManager
	Logger    *logger.Logger
	LookupEnv func(string) (string, bool)

	mu     sync.Mutex
	client *Client
}

func NewFactory(cfg models.MPriceFeedConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *Factory {
	return &Factory{
		Config:    cfg,
		Network:   netMgr,
		Logger:    log,
		LookupEnv: os.LookupEnv,
	}
}

// -----------------------------------------------------------------------------

// Client returns the shared client, building it on the first successful call.
func (f *Factory) Client() (*Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	if f.Config.BaseURL == "" {
		return nil, helpers.NewConfigurationError("price feed base url is not configured")
	}

	key, ok := f.LookupEnv(f.Config.APIKeyEnv)
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return nil, helpers.NewConfigurationError("price feed credential %s is not set", f.Config.APIKeyEnv)
	}

	currency := f.Config.Currency
	if currency == "" {
		currency = "usd"
	}

	f.client = &Client{
		baseURL:  strings.TrimRight(f.Config.BaseURL, "/"),
		apiKey:   key,
		currency: currency,
		coins:    DefaultCoins,
		network:  f.Network,
		logger:   f.Logger,
	}
	f.Logger.Info("Price feed client ready (%s)", f.client.baseURL)

	return f.client, nil
}

// -----------------------------------------------------------------------------

func (f *Factory) Name() string {
	return sourceName
}

// -----------------------------------------------------------------------------

// Tickers implements interfaces.ITickerSource through the shared client.
func (f *Factory) Tickers(ctx context.Context, symbols []string) ([]models.MTickerItem, error) {
	c, err := f.Client()
	if err != nil {
		return nil, err
	}
	return c.Tickers(ctx, symbols)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type Client struct {
	baseURL  string
	apiKey   string
	currency string
	coins    []Coin
	network  interfaces.INetworkManager
	logger   *logger.Logger
}

// marketRow is one entry of the markets answer. Pointers separate omitted
// fields from zeros.
type marketRow struct {
	ID           string   `json:"id"`
	CurrentPrice *float64 `json:"current_price"`
	Change24h    *float64 `json:"price_change_percentage_24h"`
	Volume       *float64 `json:"total_volume"`
	High24h      *float64 `json:"high_24h"`
	Low24h       *float64 `json:"low_24h"`
}

// -----------------------------------------------------------------------------

// Tickers fetches the requested symbols in one call. Rows the provider returns
// malformed or unmapped are skipped; that alone is not an error.
func (c *Client) Tickers(ctx context.Context, symbols []string) ([]models.MTickerItem, error) {
	wanted := c.selectCoins(symbols)
	if len(wanted) == 0 {
		return []models.MTickerItem{}, nil
	}

	ids := make([]string, 0, len(wanted))
	for _, coin := range wanted {
		ids = append(ids, coin.ID)
	}

	resp, err := c.network.Do(ctx, interfaces.OutboundRequest{
		Method: http.MethodGet,
		URL:    c.baseURL + marketsPath,
		Query: map[string]string{
			"vs_currency": c.currency,
			"ids":         strings.Join(ids, ","),
		},
		Headers: map[string]string{apiKeyHeader: c.apiKey},
	})
	if err != nil {
		return nil, helpers.NewUpstreamError(sourceName, 0, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, helpers.NewUpstreamError(sourceName, resp.StatusCode, string(resp.Body), nil)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, helpers.NewUpstreamError(sourceName, resp.StatusCode, string(resp.Body), err)
	}

	bySymbol := make(map[string]models.MTickerItem, len(rows))
	for i, raw := range rows {
		item, ok := c.parseRow(i, raw)
		if ok {
			bySymbol[item.Symbol] = item
		}
	}

	items := make([]models.MTickerItem, 0, len(wanted))
	for _, coin := range wanted {
		if item, ok := bySymbol[coin.Symbol]; ok {
			items = append(items, item)
		}
	}

	c.logger.Debug("Price feed: %d/%d symbols", len(items), len(wanted))
	return items, nil
}

// -----------------------------------------------------------------------------

// selectCoins applies the symbol filter in request order; unknown symbols and
// duplicates drop out.
func (c *Client) selectCoins(symbols []string) []Coin {
	if len(symbols) == 0 {
		return c.coins
	}

	index := make(map[string]Coin, len(c.coins))
	for _, coin := range c.coins {
		index[coin.Symbol] = coin
	}

	out := make([]Coin, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		coin, ok := index[sym]
		if !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, coin)
	}
	return out
}

// -----------------------------------------------------------------------------

func (c *Client) parseRow(i int, raw json.RawMessage) (models.MTickerItem, bool) {
	var row marketRow
	if err := json.Unmarshal(raw, &row); err != nil {
		c.logger.Warning("Price feed: skipping malformed row %d: %v", i, err)
		return models.MTickerItem{}, false
	}

	symbol := c.symbolFor(row.ID)
	if symbol == "" {
		c.logger.Warning("Price feed: skipping unmapped id %q", row.ID)
		return models.MTickerItem{}, false
	}
	if row.CurrentPrice == nil || *row.CurrentPrice <= 0 {
		c.logger.Warning("Price feed: skipping %s without a usable price", row.ID)
		return models.MTickerItem{}, false
	}

	return models.MTickerItem{
		Symbol:    symbol,
		Pair:      symbol + "/" + quoteCurrency,
		Price:     models.NewPrice(*row.CurrentPrice, pricePlaces),
		Change:    max(-changeLimit, min(changeLimit, orZero(row.Change24h))),
		Volume24h: orZero(row.Volume),
		High24h:   orZero(row.High24h),
		Low24h:    orZero(row.Low24h),
	}, true
}

func (c *Client) symbolFor(id string) string {
	for _, coin := range c.coins {
		if coin.ID == id {
			return coin.Symbol
		}
	}
	return ""
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
