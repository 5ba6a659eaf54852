package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/practice/console/internal/config"
	"github.com/practice/console/internal/domain/dashboard"
	"github.com/practice/console/internal/domain/encounter"
	"github.com/practice/console/internal/domain/investigation"
	"github.com/practice/console/internal/domain/messaging"
	"github.com/practice/console/internal/platform/apiclient"
	"github.com/practice/console/internal/platform/db"
	"github.com/practice/console/internal/platform/middleware"
	"github.com/practice/console/internal/platform/session"
)

const version = "0.1.0"

// requestTimeout bounds BFF requests. Uploads are skipped; they can take
// longer than any single upstream call.
const requestTimeout = 60 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the backend-for-frontend HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newAPIClient(cfg *config.Config, tokens apiclient.TokenSource, logger zerolog.Logger) *apiclient.Client {
	return apiclient.New(cfg.APIBaseURL, tokens,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
		apiclient.WithRateLimit(cfg.APIRateLimitRPS, cfg.APIRateLimitBurst),
		apiclient.WithLogger(logger),
	)
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, session.ErrUnauthenticated)
}

// jsonSerializer is echo's JSONSerializer on goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid value for field "+typeErr.Field).SetInternal(err)
	case errors.As(err, &syntaxErr):
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON: "+syntaxErr.Error()).SetInternal(err)
	}
	return err
}

// newServer builds the echo instance with middleware and every route.
func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.RequestTimeout(requestTimeout, "/api/v1/conversations/uploads", "/api/v1/encounters"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"store":   a.cfg.SessionStore,
		})
	})
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool))
	}

	apiV1 := e.Group("/api/v1")
	session.NewHandler(a.sessions).RegisterRoutes(apiV1)
	investigation.NewHandler(a.investigations).RegisterRoutes(apiV1)
	messaging.NewHandler(a.messaging).RegisterRoutes(apiV1)
	dashboard.NewHandler(a.dashboard).RegisterRoutes(apiV1)
	encounter.NewHandler(a.encounters).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	ctx := context.Background()
	a, err := newApp(ctx, os.Stdout)
	if err != nil {
		l := newLogger(os.Getenv("ENV"), os.Stdout)
		l.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()
	logger := a.logger

	e := newServer(a)

	// Keep the inbox warm so conversation reads after a hand-off see fresh data.
	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	go messaging.NewPoller(a.messaging, a.cfg.PollInterval(), logger).Run(pollCtx)

	// Graceful shutdown
	go func() {
		addr := ":" + a.cfg.Port
		logger.Info().Str("addr", addr).Str("api", a.cfg.APIBaseURL).Str("store", a.cfg.SessionStore).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
