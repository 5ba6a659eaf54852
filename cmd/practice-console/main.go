package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/practice/console/internal/config"
	"github.com/practice/console/internal/domain/dashboard"
	"github.com/practice/console/internal/domain/encounter"
	"github.com/practice/console/internal/domain/investigation"
	"github.com/practice/console/internal/domain/messaging"
	"github.com/practice/console/internal/platform/apiclient"
	"github.com/practice/console/internal/platform/db"
	"github.com/practice/console/internal/platform/recording"
	"github.com/practice/console/internal/platform/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "practice-console",
		Short:         "Provider console for the practice management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(investigationsCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(inboxCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(encounterCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describeError(err))
		os.Exit(1)
	}
}

func newLogger(env string, w io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// app holds everything a command needs, built once from config.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	sessions *session.Manager
	client   *apiclient.Client
	pool     *pgxpool.Pool
	redis    *redis.Client

	investigations *investigation.Service
	messaging      *messaging.Service
	dashboard      *dashboard.Service
	encounters     *encounter.Service
}

// newApp loads config and wires the stores, the API client and the domain
// services. CLI commands log to stderr so stdout stays machine readable.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg.Env, logOut)

	a := &app{cfg: cfg, logger: logger}
	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	mode := session.ModeAlways
	if cfg.TokenRefreshMode == string(session.ModeCached) {
		mode = session.ModeCached
	}
	a.sessions = session.NewManager(store, cfg.APIBaseURL,
		session.WithMode(mode),
		session.WithExpirySkew(cfg.TokenExpirySkew()),
		session.WithLogger(logger),
		session.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
	)

	a.client = newAPIClient(cfg, a.sessions, logger)
	if err := a.wireDomains(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.SessionStore {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		client, err := session.NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect session redis: %w", err)
		}
		a.redis = client
		return session.NewRedisStore(client, a.cfg.SessionKey), nil
	case "postgres":
		pool, err := db.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxConns, a.cfg.DBMinConns, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect session database: %w", err)
		}
		a.pool = pool
		store := session.NewPGStore(pool, a.cfg.SessionKey)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return session.NewFileStore(a.cfg.SessionFile), nil
	}
}

func (a *app) wireDomains(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	var archive recording.Archive
	if a.cfg.ArchiveEnabled() {
		m, err := recording.NewMinioArchive(recording.MinioConfig{
			Endpoint:  a.cfg.ArchiveEndpoint,
			AccessKey: a.cfg.ArchiveAccessKey,
			SecretKey: a.cfg.ArchiveSecretKey,
			Bucket:    a.cfg.ArchiveBucket,
			UseSSL:    a.cfg.ArchiveUseSSL,
		})
		if err != nil {
			return err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return err
		}
		a.logger.Info().Str("archive", m.String()).Msg("recording archive enabled")
		archive = m
	}

	handoffs := messaging.HandoffMessages{
		TakeOver: a.cfg.TakeoverMessage,
		Delegate: a.cfg.DelegateMessage,
	}
	a.investigations = investigation.NewService(investigation.NewRepoHTTP(a.client), loc, a.logger)
	a.messaging = messaging.NewService(messaging.NewRepoHTTP(a.client), handoffs, a.logger)
	a.dashboard = dashboard.NewService(dashboard.NewRepoHTTP(a.client), a.logger)
	a.encounters = encounter.NewService(
		encounter.NewRepoHTTP(a.client, a.client.WithBaseURL(a.cfg.HealthBaseURL)),
		archive, a.logger)
	return nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// withApp runs fn with a wired app whose logs go to stderr.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// describeError turns auth and upstream failures into a line a provider can
// act on.
func describeError(err error) string {
	msg := err.Error()
	switch {
	case isUnauthenticated(err):
		return "not logged in or session expired; run `practice-console session import`"
	case apiclient.StatusCode(err) != 0:
		return fmt.Sprintf("%s (status %d)", strings.TrimSpace(msg), apiclient.StatusCode(err))
	}
	return msg
}
