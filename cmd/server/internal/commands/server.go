package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"

	"github.com/kitchenops/platecost/internal/demo"
	httpmiddleware "github.com/kitchenops/platecost/internal/http"
	"github.com/kitchenops/platecost/internal/logger"
	"github.com/kitchenops/platecost/internal/server"
	"github.com/kitchenops/platecost/internal/service"
	"github.com/kitchenops/platecost/internal/store"
	postgresstore "github.com/kitchenops/platecost/internal/store/postgres"
	sqlitestore "github.com/kitchenops/platecost/internal/store/sqlite"
	"github.com/kitchenops/platecost/internal/telemetry"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"PLATECOST_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"PLATECOST_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"PLATECOST_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:8080" env:"PLATECOST_CORS_ORIGINS"`

	// Operational modes
	Production bool `help:"production mode - secure cookies, TLS required" default:"false" env:"PLATECOST_PRODUCTION"`
	Tracing    bool `help:"enable tracing and metrics export" default:"false" env:"PLATECOST_TRACING"`

	// Store configuration
	StoreType     string             `help:"shared store type (sqlite is in-memory, development only)" default:"sqlite" env:"PLATECOST_STORE_TYPE" enum:"sqlite,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Demo mode configuration
	Demo DemoFlags `embed:"" prefix:"demo-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"PLATECOST_POSTGRES_AUTO_MIGRATE"`
}

// DemoFlags configures the anonymous trial mode.
type DemoFlags struct {
	Enabled     bool          `help:"enable anonymous demo mode" default:"true" env:"PLATECOST_DEMO_ENABLED"`
	TTL         time.Duration `help:"fixed lifetime of a demo session" default:"30m" env:"PLATECOST_DEMO_TTL"`
	MaxSessions int           `help:"maximum simultaneous demo sessions" default:"100" env:"PLATECOST_DEMO_MAX_SESSIONS"`
	CookieName  string        `help:"demo session cookie name" default:"platecost_demo" env:"PLATECOST_DEMO_COOKIE"`
	BypassFile  string        `help:"YAML file with extra session bypass path rules" default:"" env:"PLATECOST_DEMO_BYPASS_FILE"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.Init(ctx, "platecost-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	shared, err := c.createSharedStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to create shared store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shared.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close shared store")
		}
	}()

	srv := server.New(
		service.NewSupplierService(shared),
		service.NewIngredientService(shared),
		service.NewRecipeService(shared),
		service.NewCostService(shared),
	)

	var handler http.Handler = srv.Routes()

	if c.Demo.Enabled {
		registry := demo.NewRegistry(sqlitestore.NewFactory(), demo.Config{
			TTL:         c.Demo.TTL,
			MaxSessions: c.Demo.MaxSessions,
		}, log)
		defer registry.Shutdown(context.Background())

		bypass := httpmiddleware.DefaultBypassRules()
		if c.Demo.BypassFile != "" {
			if bypass, err = httpmiddleware.LoadBypassRules(c.Demo.BypassFile); err != nil {
				return err
			}
		}

		handler = httpmiddleware.DemoSession(registry, httpmiddleware.SessionConfig{
			CookieName: c.Demo.CookieName,
			TTL:        c.Demo.TTL,
			Secure:     c.Production,
			Bypass:     bypass,
		})(handler)

		log.Info().
			Dur("ttl", c.Demo.TTL).
			Int("max_sessions", c.Demo.MaxSessions).
			Msg("Demo mode enabled")
	}

	// API routes get CORS, HTML routes get CSRF
	protection := csrf.New()
	apiHandler := httpmiddleware.WithCORS(c.CORSOrigins, handler)
	htmlHandler := protection.Handler(handler)
	split := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			apiHandler.ServeHTTP(w, r)
		} else {
			htmlHandler.ServeHTTP(w, r)
		}
	})

	handler = gzhttp.GzipHandler(split)
	handler = httpmiddleware.RequestMetrics()(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)
	handler = logger.Requests(log)(handler)

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" && c.Key != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		if c.Production {
			errCh <- errors.New("TLS certificate and key are required in production (--cert and --key)")
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

func (c *ServerCmd) createSharedStore(ctx context.Context) (store.Store, error) {
	switch c.StoreType {
	case "postgres":
		if c.PostgresStore.ConnString == "" {
			return nil, errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}
		return postgresstore.New(ctx, &postgresstore.Config{
			Pool: postgresstore.PoolConfig{
				ConnString:      c.PostgresStore.ConnString,
				MaxConns:        c.PostgresStore.MaxConns,
				MinConns:        c.PostgresStore.MinConns,
				MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
				MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
			},
			AutoMigrate: c.PostgresStore.AutoMigrate,
		})
	case "sqlite":
		return sqlitestore.New(ctx)
	default:
		return nil, fmt.Errorf("unknown store type: %s", c.StoreType)
	}
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
