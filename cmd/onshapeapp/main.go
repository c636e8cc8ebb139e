package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	onshapeadapter "github.com/ericfisherdev/onshapeapp/internal/adapter/driven/onshape"
	sqliteadapter "github.com/ericfisherdev/onshapeapp/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/onshapeapp/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/onshapeapp/internal/adapter/driving/web"
	"github.com/ericfisherdev/onshapeapp/internal/application"
	"github.com/ericfisherdev/onshapeapp/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"oauth_url", cfg.OAuthURL,
		"session_info_url", cfg.SessionInfoURL,
		"tokens_encrypted", cfg.SecretKey != nil,
	)
	if cfg.SecretKey == nil {
		slog.Warn("ONSHAPEAPP_SECRET_KEY not set, tokens are stored in plaintext")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "schema_version", version)

	// 5. Wire driven adapters.
	userStore := sqliteadapter.NewUserRepo(db, cfg.SecretKey)

	upstream := &http.Client{Timeout: 30 * time.Second}
	apiClient := onshapeadapter.NewClient(upstream, cfg.SessionInfoURL, slog.Default())
	oauthClient := onshapeadapter.NewOAuth(onshapeadapter.OAuthConfig{
		BaseURL:      cfg.OAuthURL,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
	}, upstream)

	// 6. Create application services.
	oauthSvc := application.NewOAuthService(userStore, oauthClient, apiClient, slog.Default())
	indexSvc := application.NewIndexService(userStore, apiClient, slog.Default())

	// 7. Register OAuth, health and metrics routes.
	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, httphandler.NewHandler(oauthSvc, userStore, slog.Default()))

	// 7b. Register the index page and static assets.
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(indexSvc, slog.Default()))

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("onshapeapp started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
