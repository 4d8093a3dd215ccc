package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"market-sync/src/config"
	"market-sync/src/logger"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)
	defer appLogger.Sync()

	// 4. Setup Components
	networkManager := setupNetwork(conf.MConfig, appLogger)
	r, err := setupRouter(conf, networkManager, appLogger)
	if err != nil {
		appLogger.Critical("Failed to build endpoint router: %v", err)
		return
	}

	// 5. Run Servers until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runServers(ctx, conf, r, appLogger); err != nil {
		appLogger.Critical("Server stopped with error: %v", err)
		return
	}
	appLogger.Info("Shutdown complete.")
}
