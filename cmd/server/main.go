package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/catsvsdogs/results/internal/config"
	"github.com/catsvsdogs/results/internal/frontend"
	"github.com/catsvsdogs/results/internal/logging"
	"github.com/catsvsdogs/results/internal/poller"
	"github.com/catsvsdogs/results/internal/tally"
	"github.com/catsvsdogs/results/internal/ws"
)

// listenFunc serves handler on addr until ctx is done.
type listenFunc func(ctx context.Context, addr string, handler http.Handler) error

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], ws.ListenAndServe); err != nil {
		slog.Error("Results relay failed", "error", err)
		stop()
		os.Exit(1)
	}
	slog.Info("Shutting down")
}

// run loads and validates configuration before anything is started, so a
// bad config never opens a listener or reaches the votes API.
func run(ctx context.Context, args []string, listen listenFunc) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to optional YAML config file")
	port := fs.String("port", "", "Override PORT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", *configPath, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.InitLogger(cfg.Log.Level, cfg.Log.Format)

	httpClient := &http.Client{Timeout: cfg.Poll.RequestTimeout}
	fetcher, err := tally.NewFetcher(cfg.VotesAPI.Host, cfg.VotesAPI.Port, httpClient)
	if err != nil {
		return fmt.Errorf("votes API endpoint: %w", err)
	}

	broadcaster := ws.NewBroadcaster(cfg.Server.MaxConnections)
	defer broadcaster.Stop()

	p := poller.New(fetcher, broadcaster,
		poller.WithDelays(cfg.Poll.ShortDelay, cfg.Poll.LongDelay),
		poller.WithRequestTimeout(cfg.Poll.RequestTimeout),
	)

	server := ws.NewServer(broadcaster, frontend.Resolve(cfg.Frontend.Dir), cfg.Server.AllowedOrigins)
	server.SetStatusHook(func() interface{} { return p.Status() })

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.Run(ctx)

	slog.Info("Results relay starting",
		"addr", cfg.ListenAddr(),
		"votes_api", cfg.ResultsEndpoint(),
	)
	if err := listen(ctx, cfg.ListenAddr(), server.Handler(mux)); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
