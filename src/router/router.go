// Package router binds every dashboard endpoint to one serving strategy,
// chosen once at startup from configuration.
package router

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"market-sync/src/chatbot"
	"market-sync/src/config"
	"market-sync/src/helpers"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
	"market-sync/src/news"
	"market-sync/src/relay"
	"market-sync/src/simulator"
)

const (
	EndpointChart   = "chart"
	EndpointNews    = "news"
	EndpointTicker  = "ticker"
	EndpointChatbot = "chatbot"
)

// Response is a strategy answer: the status to send and a JSON-encodable body.
type Response struct {
	Status int
	Body   any
}

// ChartQuery carries the raw chart-data query values.
type ChartQuery struct {
	Start      string
	End        string
	CryptoPair string
}

type ChartStrategy interface {
	Chart(ctx context.Context, q ChartQuery) (*Response, error)
}

type NewsStrategy interface {
	News(ctx context.Context, limit int) (*Response, error)
}

type ChatStrategy interface {
	Chat(ctx context.Context, req models.MChatRequest) (*Response, error)
}

// Deps are the collaborators strategies are built from. Only the ones the
// configured modes need must be set.
type Deps struct {
	Series    *simulator.SeriesSimulator
	Ticker    *simulator.TickerSimulator
	PriceFeed interfaces.ITickerSource
	Relay     *relay.Adapter
	News      *news.Feed
	Responder chatbot.Responder
}

// -----------------------------------------------------------------------------

type Router struct {
	chart   ChartStrategy
	news    NewsStrategy
	ticker  interfaces.ITickerSource
	chatbot ChatStrategy
	modes   map[string]string
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func New(cfg *config.Config, deps Deps, log *logger.Logger) (*Router, error) {
	r := &Router{modes: make(map[string]string, 4), Logger: log}
	eps := cfg.Endpoints

	remote := func(ep models.MEndpointConfig, name string) string {
		base := cfg.RemoteServers.Server(ep.Server)
		if base == "" {
			log.Warning("Endpoint %s is relayed but %s is empty; its requests will fail", name, serverKey(ep))
		}
		return base
	}

	// chart
	switch mode := cfg.ResolveMode(eps.Chart); mode {
	case config.ModeSimulated:
		if deps.Series == nil {
			return nil, missing(EndpointChart, "series simulator")
		}
		r.chart = &simulatedChart{series: deps.Series}
		r.modes[EndpointChart] = mode
	case config.ModeRelayed:
		if deps.Relay == nil {
			return nil, missing(EndpointChart, "relay")
		}
		r.chart = &relayedChart{relay: deps.Relay, baseURL: remote(eps.Chart, EndpointChart)}
		r.modes[EndpointChart] = mode
	default:
		return nil, unsupported(EndpointChart, mode)
	}

	// news
	switch mode := cfg.ResolveMode(eps.News); mode {
	case config.ModeSimulated:
		if deps.News == nil {
			return nil, missing(EndpointNews, "news feed")
		}
		r.news = &simulatedNews{feed: deps.News}
		r.modes[EndpointNews] = mode
	case config.ModeRelayed:
		if deps.Relay == nil {
			return nil, missing(EndpointNews, "relay")
		}
		r.news = &relayedNews{relay: deps.Relay, baseURL: remote(eps.News, EndpointNews)}
		r.modes[EndpointNews] = mode
	default:
		return nil, unsupported(EndpointNews, mode)
	}

	// ticker
	switch mode := cfg.ResolveMode(eps.Ticker); mode {
	case config.ModeSimulated:
		if deps.Ticker == nil {
			return nil, missing(EndpointTicker, "ticker simulator")
		}
		r.ticker = deps.Ticker
		r.modes[EndpointTicker] = mode
	case config.ModeExternal:
		if deps.PriceFeed == nil {
			return nil, missing(EndpointTicker, "price feed")
		}
		r.ticker = deps.PriceFeed
		r.modes[EndpointTicker] = mode
	case config.ModeRelayed:
		if deps.Relay == nil {
			return nil, missing(EndpointTicker, "relay")
		}
		r.ticker = &relayedTicker{relay: deps.Relay, baseURL: remote(eps.Ticker, EndpointTicker)}
		r.modes[EndpointTicker] = mode
	default:
		return nil, unsupported(EndpointTicker, mode)
	}

	// chatbot
	switch mode := cfg.ResolveMode(eps.Chatbot); mode {
	case config.ModeSimulated:
		if deps.Responder == nil {
			return nil, missing(EndpointChatbot, "responder")
		}
		r.chatbot = &simulatedChat{responder: deps.Responder}
		r.modes[EndpointChatbot] = mode
	case config.ModeRelayed:
		if deps.Relay == nil {
			return nil, missing(EndpointChatbot, "relay")
		}
		r.chatbot = &relayedChat{relay: deps.Relay, baseURL: remote(eps.Chatbot, EndpointChatbot)}
		r.modes[EndpointChatbot] = mode
	default:
		return nil, unsupported(EndpointChatbot, mode)
	}

	r.logModes(cfg)
	return r, nil
}

// -----------------------------------------------------------------------------

func (r *Router) logModes(cfg *config.Config) {
	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	var diverging []string
	for _, name := range names {
		parts = append(parts, name+"="+r.modes[name])
		global := config.ModeSimulated
		if cfg.UseActualServer {
			global = config.ModeRelayed
		}
		if r.modes[name] != global {
			diverging = append(diverging, name)
		}
	}

	r.Logger.Info("Endpoint modes: %s (use_actual_server=%v)", strings.Join(parts, " "), cfg.UseActualServer)
	if len(diverging) > 0 {
		r.Logger.Warning("Endpoints not following use_actual_server: %s", strings.Join(diverging, ", "))
	}
}

// -----------------------------------------------------------------------------

// Modes returns the effective mode of every endpoint.
func (r *Router) Modes() map[string]string {
	out := make(map[string]string, len(r.modes))
	for k, v := range r.modes {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

func (r *Router) Chart(ctx context.Context, q ChartQuery) (*Response, error) {
	return r.chart.Chart(ctx, q)
}

// -----------------------------------------------------------------------------

func (r *Router) News(ctx context.Context, limit int) (*Response, error) {
	return r.news.News(ctx, news.ClampLimit(limit))
}

// -----------------------------------------------------------------------------

func (r *Router) Ticker(ctx context.Context, symbols []string) (*Response, error) {
	items, err := r.ticker.Tickers(ctx, symbols)
	if err != nil {
		return nil, err
	}
	return &Response{Status: http.StatusOK, Body: items}, nil
}

// -----------------------------------------------------------------------------

// TickerSource exposes the configured ticker strategy to the stream and the
// control plane.
func (r *Router) TickerSource() interfaces.ITickerSource {
	return r.ticker
}

// -----------------------------------------------------------------------------

func (r *Router) Chat(ctx context.Context, req models.MChatRequest) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, helpers.NewValidationError("message is required")
	}
	if req.History == nil {
		req.History = []models.MChatTurn{}
	}
	return r.chatbot.Chat(ctx, req)
}

// -----------------------------------------------------------------------------

func serverKey(ep models.MEndpointConfig) string {
	if ep.Server == "" {
		return "server1"
	}
	return ep.Server
}

func missing(endpoint, dep string) error {
	return helpers.NewConfigurationError("endpoint %s needs a %s", endpoint, dep)
}

func unsupported(endpoint, mode string) error {
	return helpers.NewConfigurationError("endpoint %s does not support mode %q", endpoint, mode)
}
