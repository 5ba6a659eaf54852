package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/practice/console/internal/platform/middleware"
	"github.com/practice/console/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/dashboard/patients/:id", h.GetPatientDetail)
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.POST("/appointments", h.BookAppointment)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetPatientDetail(c echo.Context) error {
	p, err := h.svc.PatientDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	f := PatientFilter{
		Status: SubscriptionStatus(c.QueryParam("status")),
		Query:  c.QueryParam("q"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be one of: active pending churned no_subscription")
	}
	patients, err := h.svc.AllPatients(c.Request().Context(), f)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.Slice(patients, pagination.FromContext(c)))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), &req)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req BookAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.BookAppointment(c.Request().Context(), &req)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}
