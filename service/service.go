package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gitstatviewer/config"
	"gitstatviewer/db"
	"gitstatviewer/github"
	"gitstatviewer/logger"
	"gitstatviewer/poller"
	"gitstatviewer/server"
	"gitstatviewer/tracker"
)

// Service errors
var (
	ErrServiceInit     = fmt.Errorf("service initialization error")
	ErrServiceShutdown = fmt.Errorf("service shutdown error")
)

// Service wires the configuration, store, remote adapter, tracker,
// poller and HTTP server together and owns their lifecycle.
type Service struct {
	config   *config.Config
	database *db.DB
	tracker  *tracker.Tracker
	poller   *poller.Poller
	server   *server.Server
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewService creates a new service instance
func NewService() (*Service, error) {
	// Load configuration
	cfg := config.NewConfig()
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("%w: failed to load configuration: %v", ErrServiceInit, err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize logger: %v", ErrServiceInit, err)
	}

	// Initialize database
	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize database: %v", ErrServiceInit, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := database.Migrate(ctx); err != nil {
		cancel()
		database.Close()
		return nil, fmt.Errorf("%w: failed to migrate database: %v", ErrServiceInit, err)
	}

	// Initialize GitHub client and the synchronization core
	client := github.NewClient(cfg.GitHubToken)
	trk := tracker.New(database, client, cfg.ProbeSize, cfg.PageSize)
	pol := poller.New(trk, cfg.PollInterval)
	srv := server.New(cfg.HTTPAddr, trk, database, database, cfg.AllowedOrigins)

	logger.Info("Service initialized successfully",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("probe_size", cfg.ProbeSize),
		zap.Int("page_size", cfg.PageSize))

	return &Service{
		config:   cfg,
		database: database,
		tracker:  trk,
		poller:   pol,
		server:   srv,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start runs the poller and HTTP server until a shutdown signal arrives
func (s *Service) Start() error {
	s.poller.Start(s.ctx)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	}

	s.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer shutdownCancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w: failed to stop http server: %v", ErrServiceShutdown, err)
	}

	return nil
}

// Close performs cleanup operations
func (s *Service) Close() error {
	logger.Info("Closing service")
	s.cancel()
	if err := s.database.Close(); err != nil {
		return fmt.Errorf("%w: failed to close database: %v", ErrServiceShutdown, err)
	}
	logger.Sync()
	return nil
}
