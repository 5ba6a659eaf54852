package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler lets the browser UI hand its token pair to the BFF and log out.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/session", h.GetSession)
	g.POST("/session", h.CreateSession)
	g.DELETE("/session", h.DeleteSession)
}

type importBody struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    map[string]any `json:"user"`
}

// GetSession reports the stored user. Tokens are never returned.
func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.mgr.Current(c.Request().Context())
	if errors.Is(err, ErrNoSession) {
		return c.JSON(http.StatusOK, map[string]interface{}{"authenticated": false})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"authenticated": sess.Refresh != "",
		"user":          sess.User,
	})
}

func (h *Handler) CreateSession(c echo.Context) error {
	var body importBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh is required")
	}
	if err := h.mgr.Import(c.Request().Context(), body.Access, body.Refresh, body.User); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.mgr.Logout(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
