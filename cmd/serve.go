package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"invoice-dashboard/internal/clients"
	"invoice-dashboard/internal/config"
	"invoice-dashboard/internal/logger"
	"invoice-dashboard/internal/observability"
	"invoice-dashboard/internal/repository"
	"invoice-dashboard/internal/service"
	"invoice-dashboard/internal/transport/rest"
	"invoice-dashboard/internal/transport/websocket"
	"invoice-dashboard/pkg/database/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP and websocket server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "Listen port (overrides APP_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	l := logger.WithComponent("serve")

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := initPostgres(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store, local, err := initFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	metrics := observability.NewMetrics()
	cache := service.NewCache(redisClient, cfg.CacheTTL, metrics)

	dashboard := service.NewDashboardService(
		repository.NewInvoiceRepository(db),
		repository.NewPaymentRepository(db),
		cache,
		wsClient,
		metrics,
	).WithTopCustomers(cfg.TopCustomers)
	exports := service.NewExportService(dashboard, redisClient, store, wsClient, metrics)

	handler := rest.NewHandler(dashboard, exports, time.Now)
	api := handler.InitRouter(rest.RouterOptions{
		Metrics:             metrics,
		WriteLimitPerMinute: cfg.RateLimitPerMinute,
		Production:          cfg.IsProduction(),
	})

	// /files and /ws stay outside the API middleware so downloads and
	// long lived sockets are not cut by the request timeout
	root := chi.NewRouter()
	if local != nil {
		root.Get(local.PublicPrefix+"/{file}", rest.FileHandler(local))
	}
	root.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsHub.HandleWebSocket(w, r, r.URL.Query().Get("topic"))
	})
	root.Mount("/", api)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(root),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		l.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	if local != nil {
		go cleanupLoop(ctx, local, cfg.Export.MaxAge)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-stop:
		l.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Warn().Err(err).Msg("HTTP server shutdown error")
		}

		// stops the websocket hub and the cleanup loop
		cancel()
		exports.Wait()
		wsHub.Wait()

		l.Info().Msg("shutdown complete")
	}
	return nil
}

func initPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*clients.RedisClient, error) {
	client, err := clients.NewRedisClient(ctx, clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis init: %w", err)
	}
	return client, nil
}

// initFileStore returns the export store; local is set only for the disk backend.
func initFileStore(ctx context.Context, cfg config.AppConfig) (service.FileStore, *clients.LocalStorage, error) {
	if cfg.Export.Backend == "s3" {
		s3, err := clients.NewS3Client(clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			URLTTL:          cfg.S3.URLTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	}

	local, err := clients.NewLocalStorage(cfg.Export.Dir, cfg.Export.PublicPrefix, cfg.Export.ExternalURL)
	if err != nil {
		return nil, nil, fmt.Errorf("storage init: %w", err)
	}
	return local, local, nil
}

func cleanupLoop(ctx context.Context, local *clients.LocalStorage, maxAge time.Duration) {
	l := logger.WithComponent("storage")
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := local.CleanupOlderThan(maxAge); err != nil {
				l.Warn().Err(err).Msg("storage cleanup error")
			}
		}
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
