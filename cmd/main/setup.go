package main

import (
	"market-sync/src/chatbot"
	"market-sync/src/config"
	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
	"market-sync/src/network"
	"market-sync/src/news"
	"market-sync/src/pricefeed"
	"market-sync/src/relay"
	"market-sync/src/router"
	"market-sync/src/simulator"
)

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig, appLogger *logger.Logger) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(config, appLogger.Named("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupRouter builds every collaborator and binds one strategy per endpoint.
// The price feed client itself is only created on the first ticker request.
func setupRouter(conf *config.Config, networkManager interfaces.INetworkManager, appLogger *logger.Logger) (*router.Router, error) {
	cfg := conf.MConfig
	scorer := chatbot.NewKeywordScorer()

	deps := router.Deps{
		Series:    simulator.NewSeriesSimulator(simulator.DefaultRand(), nil),
		Ticker:    simulator.NewTickerSimulator(simulator.DefaultBaseQuotes, simulator.DefaultRand()),
		PriceFeed: pricefeed.NewFactory(cfg.PriceFeed, networkManager, appLogger.Named("PriceFeed")),
		Relay:     relay.NewAdapter(networkManager, appLogger.Named("Relay")),
		News:      news.NewFeed(scorer),
		Responder: chatbot.NewKeywordResponder(scorer),
	}

	return router.New(conf, deps, appLogger.Named("Router"))
}
