package encounter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/practice/console/internal/platform/middleware"
	"github.com/practice/console/internal/platform/recording"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/encounters")
	g.POST("", h.CreateEncounter)
	g.POST("/process-audio", h.ProcessAudio)
	g.POST("/:id/audio", h.UploadAudio)
}

func (h *Handler) CreateEncounter(c echo.Context) error {
	var req CreateEncounterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	enc, err := h.svc.CreateEncounter(c.Request().Context(), &req)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, enc)
}

func (h *Handler) UploadAudio(c echo.Context) error {
	audio, err := readAudio(c)
	if err != nil {
		return err
	}
	res, err := h.svc.UploadAudio(c.Request().Context(), c.Param("id"), *audio)
	if err != nil {
		return audioError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) ProcessAudio(c echo.Context) error {
	audio, err := readAudio(c)
	if err != nil {
		return err
	}
	note, err := h.svc.ProcessAudio(c.Request().Context(), *audio)
	if err != nil {
		return audioError(err)
	}
	return c.JSON(http.StatusOK, note)
}

// readAudio takes the recording from the "audio" form field, falling back to
// "file".
func readAudio(c echo.Context) (*Audio, error) {
	fh, err := c.FormFile(audioField)
	if err != nil {
		fh, err = c.FormFile("file")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "audio file is required")
	}
	if fh.Size > recording.MaxFileSize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, recording.ErrFileTooLarge.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	data, err := recording.ReadAudio(f)
	if err != nil {
		return nil, audioError(err)
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == echo.MIMEOctetStream {
		if byExt := recording.ContentTypeFor(fh.Filename); byExt != "" {
			ct = byExt
		}
	}
	return &Audio{FileName: fh.Filename, ContentType: ct, Data: data}, nil
}

func audioError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, recording.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, recording.ErrUnsupportedType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, recording.ErrMissingFileName), errors.Is(err, recording.ErrEmptyRecording),
		errors.Is(err, ErrPublicIDRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return middleware.HTTPError(err)
}
