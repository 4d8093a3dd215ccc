package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"market-sync/src/config"
	pb "market-sync/src/grpc_control"
	"market-sync/src/logger"
	"market-sync/src/router"
	"market-sync/src/server"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// runServers starts the HTTP API, the ticker stream and the gRPC control
// plane, and stops all of them when ctx ends or any one fails.
func runServers(ctx context.Context, conf *config.Config, r *router.Router, appLogger *logger.Logger) error {
	cfg := conf.MConfig

	// 1. Bind the gRPC listener before anything runs
	var lis net.Listener
	if cfg.GrpcPort > 0 {
		var err error
		lis, err = net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.GrpcHost, cfg.GrpcPort))
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	// 2. API Server
	srv := server.NewAPIServer(cfg, r, appLogger.Named("APIServer"))
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		return srv.Stop()
	})

	// 3. Ticker Stream
	if cfg.TickerStream.Enabled {
		interval := time.Duration(cfg.TickerStream.IntervalMs) * time.Millisecond
		streamer := server.NewTickerStreamer(r.TickerSource(), srv, interval, appLogger.Named("TickerStream"))
		g.Go(func() error { return streamer.Run(ctx) })
	}

	// 4. gRPC Control Server
	if lis != nil {
		grpcServer := grpc.NewServer()
		pb.RegisterControlServer(grpcServer, pb.NewControlService(r, appLogger.Named("ControlService")))

		g.Go(func() error {
			appLogger.Info("Starting gRPC Control Server on %s", lis.Addr())
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			grpcServer.GracefulStop()
			return nil
		})
	}

	return g.Wait()
}
