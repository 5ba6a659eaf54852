package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *MemoryStore, *echo.Echo) {
	store := NewMemoryStore()
	return NewHandler(NewManager(store, "http://unused.invalid")), store, echo.New()
}

func TestHandler_CreateAndGetSession(t *testing.T) {
	h, store, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"access":"a","refresh":"r","user":{"first_name":"Ada"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.CreateSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	sess, err := store.Get(context.Background())
	if err != nil || sess.Refresh != "r" {
		t.Fatalf("expected stored session, got %+v %v", sess, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	rec = httptest.NewRecorder()
	if err := h.GetSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"authenticated":true`) || !strings.Contains(body, `"first_name":"Ada"`) {
		t.Errorf("unexpected body %s", body)
	}
	if strings.Contains(body, `"r"`) {
		t.Errorf("tokens must not be returned: %s", body)
	}
}

func TestHandler_CreateSession_RequiresRefresh(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"access":"a"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.CreateSession(e.NewContext(req, rec))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_DeleteSession(t *testing.T) {
	h, store, e := newTestHandler()
	store.Set(context.Background(), &Session{Access: "a", Refresh: "r"})

	req := httptest.NewRequest(http.MethodDelete, "/session", nil)
	rec := httptest.NewRecorder()
	if err := h.DeleteSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected session cleared, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	rec = httptest.NewRecorder()
	h.GetSession(e.NewContext(req, rec))
	if !strings.Contains(rec.Body.String(), `"authenticated":false`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
