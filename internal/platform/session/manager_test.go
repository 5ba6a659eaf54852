package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":     exp.Unix(),
		"user_id": 42,
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

type refreshServer struct {
	*httptest.Server
	calls  atomic.Int32
	status int
	access string
}

func newRefreshServer(t *testing.T, status int, access string) *refreshServer {
	t.Helper()
	rs := &refreshServer{status: status, access: access}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.calls.Add(1)
		if r.URL.Path != RefreshPath || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["refresh"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rs.status)
		if rs.status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]string{"access": rs.access})
			return
		}
		w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func TestManager_AccessToken_RefreshesEveryCall(t *testing.T) {
	srv := newRefreshServer(t, http.StatusOK, "fresh-access")
	store := NewMemoryStore()
	store.Set(context.Background(), &Session{Access: "old", Refresh: "r1"})

	m := NewManager(store, srv.URL)
	for i := 0; i < 3; i++ {
		tok, err := m.AccessToken(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "fresh-access" {
			t.Errorf("expected fresh-access, got %q", tok)
		}
	}
	if got := srv.calls.Load(); got != 3 {
		t.Errorf("expected 3 refresh calls, got %d", got)
	}

	sess, _ := store.Get(context.Background())
	if sess.Access != "fresh-access" {
		t.Errorf("expected stored access to be updated, got %q", sess.Access)
	}
	if sess.Refresh != "r1" {
		t.Errorf("expected refresh token to be kept, got %q", sess.Refresh)
	}
}

func TestManager_AccessToken_RejectedClearsSession(t *testing.T) {
	srv := newRefreshServer(t, http.StatusUnauthorized, "")
	store := NewMemoryStore()
	store.Set(context.Background(), &Session{Access: "old", Refresh: "expired"})

	m := NewManager(store, srv.URL)
	tok, err := m.AccessToken(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if tok != "" {
		t.Errorf("expected empty token, got %q", tok)
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected session to be cleared, got %v", err)
	}
}

func TestManager_AccessToken_NetworkErrorKeepsSession(t *testing.T) {
	srv := newRefreshServer(t, http.StatusOK, "x")
	url := srv.URL
	srv.Close()

	store := NewMemoryStore()
	store.Set(context.Background(), &Session{Refresh: "r1"})

	m := NewManager(store, url)
	_, err := m.AccessToken(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := store.Get(context.Background()); err != nil {
		t.Errorf("expected session to survive a transport error, got %v", err)
	}
}

func TestManager_AccessToken_NoSession(t *testing.T) {
	srv := newRefreshServer(t, http.StatusOK, "x")
	m := NewManager(NewMemoryStore(), srv.URL)

	_, err := m.AccessToken(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if srv.calls.Load() != 0 {
		t.Error("expected no refresh call without a session")
	}
}

func TestManager_AccessToken_CachedMode(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	access := signedToken(t, now.Add(5*time.Minute))
	srv := newRefreshServer(t, http.StatusOK, access)

	store := NewMemoryStore()
	store.Set(context.Background(), &Session{Refresh: "r1"})

	clock := now
	m := NewManager(store, srv.URL,
		WithMode(ModeCached),
		WithExpirySkew(30*time.Second),
		WithClock(func() time.Time { return clock }),
	)

	for i := 0; i < 3; i++ {
		if _, err := m.AccessToken(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("expected 1 refresh call while cached, got %d", got)
	}

	clock = now.Add(4*time.Minute + 45*time.Second)
	if _, err := m.AccessToken(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := srv.calls.Load(); got != 2 {
		t.Errorf("expected refresh inside the skew window, got %d calls", got)
	}
}

func TestManager_AccessToken_CachedModeOpaqueToken(t *testing.T) {
	srv := newRefreshServer(t, http.StatusOK, "not-a-jwt")
	store := NewMemoryStore()
	store.Set(context.Background(), &Session{Refresh: "r1"})

	m := NewManager(store, srv.URL, WithMode(ModeCached))
	m.AccessToken(context.Background())
	m.AccessToken(context.Background())
	if got := srv.calls.Load(); got != 2 {
		t.Errorf("expected opaque tokens never to be cached, got %d calls", got)
	}
}

func TestManager_Logout(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, "http://unused")
	if err := m.Import(context.Background(), "a", "r", map[string]any{"name": "Dr. Ada"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := m.Current(context.Background()); err != nil {
		t.Fatalf("expected stored session, got %v", err)
	}
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := m.Current(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after logout, got %v", err)
	}
}

func TestManager_ImportRequiresRefresh(t *testing.T) {
	m := NewManager(NewMemoryStore(), "http://unused")
	if err := m.Import(context.Background(), "a", "", nil); err == nil {
		t.Error("expected error for missing refresh token")
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	got, ok := tokenExpiry(signedToken(t, exp))
	if !ok {
		t.Fatal("expected exp to be readable")
	}
	if !got.Equal(exp) {
		t.Errorf("expected %v, got %v", exp, got)
	}
	if _, ok := tokenExpiry("garbage"); ok {
		t.Error("expected garbage token to have no expiry")
	}
}
