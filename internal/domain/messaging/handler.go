package messaging

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/practice/console/internal/platform/middleware"
	"github.com/practice/console/internal/platform/validation"
	"github.com/practice/console/pkg/pagination"
	"github.com/practice/console/pkg/wire"
)

// MaxUploadBytes bounds a single media upload.
const MaxUploadBytes = 25 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/conversations")
	g.GET("", h.ListConversations)
	g.GET("/:id", h.GetConversation)
	g.POST("/:id/messages", h.SendMessage)
	g.POST("/:id/responder", h.SwitchResponder)
	g.POST("/uploads", h.UploadMedia)
	g.POST("/templates/send", h.SendTemplate)
	g.POST("/templates/preview", h.PreviewTemplate)
}

type sendBody struct {
	Text  string `json:"text"`
	Media *Media `json:"media,omitempty"`
}

type switchBody struct {
	Responder      Responder   `json:"responder" validate:"required,oneof=assistant doctor"`
	ProviderID     wire.FlexID `json:"provider_id"`
	HandoffMessage string      `json:"handoff_message" validate:"max=1000"`
}

type selectedView struct {
	Conversation Conversation `json:"conversation"`
	Present      bool         `json:"present"`
}

// ListConversations reloads the inbox and returns one page of it. With
// ?selected=<public_id> the response also reports whether that conversation
// is still in the list.
func (h *Handler) ListConversations(c echo.Context) error {
	if err := h.svc.Reload(c.Request().Context()); err != nil {
		return middleware.HTTPError(err)
	}
	// One snapshot serves the page and the selection; the shared inbox
	// selection belongs to the CLI watcher, not to BFF callers.
	list := h.svc.Inbox().Conversations()
	resp := pagination.Slice(list, pagination.FromContext(c))

	if id := c.QueryParam("selected"); id != "" {
		conv, present := findConversation(list, id)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"page":     resp,
			"selected": selectedView{Conversation: conv, Present: present},
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func findConversation(list []Conversation, publicID string) (Conversation, bool) {
	for _, c := range list {
		if c.PublicID == publicID {
			return c, true
		}
	}
	return Conversation{}, false
}

func (h *Handler) GetConversation(c echo.Context) error {
	conv, err := h.svc.Conversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *Handler) SendMessage(c echo.Context) error {
	var body sendBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Send(c.Request().Context(), c.Param("id"), Composer{Text: body.Text, Media: body.Media})
	if err != nil {
		return middleware.HTTPError(err)
	}
	if res == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) SwitchResponder(c echo.Context) error {
	var body switchBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validation.Struct(body); err != nil {
		return middleware.HTTPError(err)
	}
	conv, err := h.svc.SwitchResponder(c.Request().Context(), c.Param("id"), body.Responder, body.ProviderID, body.HandoffMessage)
	switch {
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrUnknownResponder):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrProviderRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrReloadAfterSwitch):
		// The switch itself went through.
		return c.JSON(http.StatusAccepted, map[string]string{"warning": err.Error()})
	case err != nil:
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *Handler) UploadMedia(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	media, err := h.svc.UploadMedia(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, media)
}

func (h *Handler) bindTemplate(c echo.Context) (*TemplateRequest, error) {
	var req TemplateRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validation.Struct(req); err != nil {
		return nil, middleware.HTTPError(err)
	}
	if req.PublicID == "" && req.PhoneNumber == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, ErrTemplateRecipient.Error())
	}
	return &req, nil
}

func (h *Handler) SendTemplate(c echo.Context) error {
	req, err := h.bindTemplate(c)
	if err != nil {
		return err
	}
	res, err := h.svc.SendTemplate(c.Request().Context(), req)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) PreviewTemplate(c echo.Context) error {
	req, err := h.bindTemplate(c)
	if err != nil {
		return err
	}
	p, err := h.svc.PreviewTemplate(c.Request().Context(), req)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}
