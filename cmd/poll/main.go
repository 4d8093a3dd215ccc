package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"market-sync/src/chatbot"
	"market-sync/src/config"
	"market-sync/src/logger"
	"market-sync/src/network"
	"market-sync/src/news"
	"market-sync/src/poller"
	"market-sync/src/simulator"
	"market-sync/src/utils"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "", "optional path to config file")
	base := flag.String("base", "http://localhost:3001", "base URL of the market-sync server")
	endpoint := flag.String("endpoint", "ticker", "endpoint to poll: chart, ticker or news")
	start := flag.String("start", "", "chart window start (ISO-8601 or YYYY-MM-DD)")
	end := flag.String("end", "", "chart window end (ISO-8601 or YYYY-MM-DD)")
	pair := flag.String("pair", "", "crypto pair for chart data")
	symbols := flag.String("symbols", "", "comma separated ticker symbols")
	limit := flag.Int("limit", 0, "number of news items")
	policy := flag.String("policy", "surface", "failure policy: surface, empty or fallback")
	flag.Parse()

	// 2. Load config
	cfg := config.Defaults()
	if *configPath != "" {
		conf, err := config.NewConfig(*configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = conf.MConfig
	}

	// 3. Setup Logger and Network
	appLogger := logger.NewLogger(cfg, "Poller")
	defer appLogger.Sync()
	networkManager := network.NewAsyncNetworkManager(cfg, appLogger.Named("NetworkManager"))

	// 4. Build the request
	var req poller.Request
	switch *endpoint {
	case "chart":
		req = poller.ChartDataRequest(*start, *end, *pair)
	case "ticker":
		req = poller.TickerRequest(utils.SplitSymbols(*symbols))
	case "news":
		req = poller.NewsRequest(*limit)
	default:
		appLogger.Critical("Unknown endpoint %q", *endpoint)
		os.Exit(2)
	}

	failurePolicy, err := selectPolicy(*policy)
	if err != nil {
		appLogger.Critical("%v", err)
		os.Exit(2)
	}

	client := poller.NewClient(*base, networkManager,
		poller.WithPolicy(failurePolicy),
		poller.WithLogger(appLogger),
	)

	// 5. Poll until settled or interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := client.Run(ctx, req, func(s poller.State) {
		appLogger.Info("%s %s (attempt %d, elapsed %s)", req.Path, s.Status, s.Attempts, s.Elapsed)
	})
	if err != nil {
		appLogger.Error("Polling %s failed: %v", req.Path, err)
		os.Exit(1)
	}
	if st.Fallback {
		appLogger.Warning("Serving fallback data for %s", req.Path)
	}

	var pretty any
	if err := json.Unmarshal(st.Data, &pretty); err != nil {
		appLogger.Error("Response is not JSON: %v", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

// -----------------------------------------------------------------------------

// selectPolicy maps a flag value to a failure policy. The fallback policy
// answers from the local simulators.
func selectPolicy(name string) (poller.FailurePolicy, error) {
	switch name {
	case "surface":
		return poller.SurfaceError, nil
	case "empty":
		return poller.EmptyOnError, nil
	case "fallback":
		return poller.FallbackOnError(localAnswer()), nil
	}
	return nil, fmt.Errorf("unknown failure policy %q", name)
}

func localAnswer() func(req poller.Request) (any, error) {
	series := simulator.NewSeriesSimulator(simulator.DefaultRand(), nil)
	ticker := simulator.NewTickerSimulator(simulator.DefaultBaseQuotes, simulator.DefaultRand())
	feed := news.NewFeed(chatbot.NewKeywordScorer())

	return func(req poller.Request) (any, error) {
		switch req.Path {
		case poller.PathChartData:
			from, to, err := series.Window(req.Query["startDateTime"], req.Query["endDateTime"])
			if err != nil {
				return nil, err
			}
			return series.Generate(from, to)
		case poller.PathTicker:
			return ticker.Tick(utils.SplitSymbols(req.Query["symbols"])), nil
		case poller.PathNews:
			return feed.Latest(atoi(req.Query["limit"])), nil
		}
		return nil, fmt.Errorf("no local answer for %s", req.Path)
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
