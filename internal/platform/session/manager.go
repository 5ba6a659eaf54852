package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// RefreshPath is the token refresh endpoint on the API host.
const RefreshPath = "/tokenrefresh/"

// Mode selects when the manager talks to the refresh endpoint.
type Mode string

const (
	// ModeAlways refreshes on every AccessToken call.
	ModeAlways Mode = "always"
	// ModeCached reuses an access token until shortly before its exp claim.
	ModeCached Mode = "cached"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) { m.httpClient = c }
}

func WithMode(mode Mode) ManagerOption {
	return func(m *Manager) { m.mode = mode }
}

// WithExpirySkew makes cached tokens refresh this long before they expire.
func WithExpirySkew(d time.Duration) ManagerOption {
	return func(m *Manager) { m.skew = d }
}

func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// Manager hands out access tokens backed by the stored refresh token.
type Manager struct {
	store      Store
	refreshURL string
	httpClient *http.Client
	mode       Mode
	skew       time.Duration
	logger     zerolog.Logger
	now        func() time.Time

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
}

// NewManager creates a Manager refreshing against baseURL + RefreshPath.
func NewManager(store Store, baseURL string, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		refreshURL: strings.TrimRight(baseURL, "/") + RefreshPath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		mode:       ModeAlways,
		skew:       30 * time.Second,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type refreshRejectedError struct {
	status int
}

func (e *refreshRejectedError) Error() string {
	return fmt.Sprintf("token refresh rejected with status %d", e.status)
}

// AccessToken returns a bearer token for the next request.
//
// A refresh the server rejects clears the stored session. Transport failures
// leave the session in place; both cases satisfy errors.Is(err, ErrUnauthenticated).
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == ModeCached && m.cached != "" && m.now().Before(m.expiresAt.Add(-m.skew)) {
		return m.cached, nil
	}

	sess, err := m.store.Get(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	if sess.Refresh == "" {
		return "", ErrUnauthenticated
	}

	access, rotated, err := m.refresh(ctx, sess.Refresh)
	if err != nil {
		m.dropCache()
		var rejected *refreshRejectedError
		if errors.As(err, &rejected) {
			m.logger.Warn().Int("status", rejected.status).Msg("refresh token rejected; clearing session")
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				m.logger.Error().Err(clearErr).Msg("failed to clear session")
			}
			return "", ErrUnauthenticated
		}
		m.logger.Error().Err(err).Msg("token refresh failed")
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	sess.Access = access
	if rotated != "" {
		sess.Refresh = rotated
	}
	if err := m.store.Set(ctx, sess); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist refreshed session")
	}

	if m.mode == ModeCached {
		if exp, ok := tokenExpiry(access); ok {
			m.cached = access
			m.expiresAt = exp
		}
	}
	return access, nil
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (access, rotated string, err error) {
	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", "", &refreshRejectedError{status: resp.StatusCode}
	}

	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("decode refresh response: %w", err)
	}
	if out.Access == "" {
		return "", "", &refreshRejectedError{status: resp.StatusCode}
	}
	return out.Access, out.Refresh, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server remains the authority on validity.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (m *Manager) dropCache() {
	m.cached = ""
	m.expiresAt = time.Time{}
}

// Import stores a token pair obtained outside the console.
func (m *Manager) Import(ctx context.Context, access, refresh string, user map[string]any) error {
	if refresh == "" {
		return fmt.Errorf("refresh token is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropCache()
	return m.store.Set(ctx, &Session{Access: access, Refresh: refresh, User: user})
}

// Current returns the stored session without refreshing it.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	return m.store.Get(ctx)
}

// Logout clears the stored session unconditionally.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropCache()
	return m.store.Clear(ctx)
}
