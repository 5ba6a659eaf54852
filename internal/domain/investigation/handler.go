package investigation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/practice/console/internal/platform/middleware"
	"github.com/practice/console/pkg/pagination"
	"github.com/practice/console/pkg/wire"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/investigations")
	g.GET("/listings", h.GetReferenceData)
	g.GET("/pending", h.ListPending)
	g.POST("/requests", h.CreateRequest)
	g.PUT("/requests/:id", h.UpdateRequest)
	g.POST("/requests/:id/order", h.CreateOrder)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:id", h.GetOrder)
	g.GET("/orders/:id/checkout", h.GetCheckout)
}

// requestBody is the form as the browser posts it.
type requestBody struct {
	PatientID      wire.FlexID `json:"patient_id"`
	PaymentMethod  string      `json:"payment_method"`
	Investigations []Draft     `json:"investigations"`
}

type submitResponse struct {
	State    State           `json:"state"`
	Response *ManageResponse `json:"response"`
}

func (h *Handler) GetReferenceData(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.LoadReferenceData(c.Request().Context()))
}

func (h *Handler) ListPending(c echo.Context) error {
	days := 0
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = n
	}
	reqs, err := h.svc.PendingInvestigations(c.Request().Context(), days)
	if err != nil {
		return middleware.HTTPError(err)
	}
	views := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		views = append(views, NormalizeRequest(r))
	}
	return c.JSON(http.StatusOK, pagination.Slice(views, pagination.FromContext(c)))
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var body requestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f := NewForm()
	f.PatientID = body.PatientID
	f.PaymentMethod = body.PaymentMethod
	f.Lines = body.Investigations
	return h.submit(c, f, http.StatusCreated)
}

func (h *Handler) UpdateRequest(c echo.Context) error {
	var body requestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.EditForm(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "investigation request not found")
		}
		return middleware.HTTPError(err)
	}
	if err := f.ApplyEdit(body.PatientID, body.PaymentMethod, body.Investigations); err != nil {
		if errors.Is(err, ErrPatientLocked) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return middleware.HTTPError(err)
	}
	return h.submit(c, f, http.StatusOK)
}

func (h *Handler) submit(c echo.Context, f *Form, status int) error {
	ctx := c.Request().Context()
	if err := h.svc.AttachListings(ctx, f); err != nil {
		return middleware.HTTPError(err)
	}
	resp, err := h.svc.Submit(ctx, f)
	if err != nil {
		return middleware.HTTPError(err)
	}
	return c.JSON(status, submitResponse{State: f.State, Response: resp})
}

func (h *Handler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	req, err := h.svc.RequestByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "investigation request not found")
		}
		return middleware.HTTPError(err)
	}
	resp, err := h.svc.CreateOrder(ctx, *req)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrInvalidPrice) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListOrders(c echo.Context) error {
	orders, err := h.svc.ListOrders(c.Request().Context())
	if err != nil {
		return middleware.HTTPError(err)
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, NormalizeOrder(o))
	}
	return c.JSON(http.StatusOK, pagination.Slice(views, pagination.FromContext(c)))
}

type orderDetail struct {
	OrderView
	LatestCheckpoint *PaymentCheckpoint `json:"latest_checkpoint,omitempty"`
	Settled          bool               `json:"settled"`
	Terminal         bool               `json:"terminal"`
}

func (h *Handler) GetOrder(c echo.Context) error {
	o, err := h.svc.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return middleware.HTTPError(err)
	}
	d := orderDetail{OrderView: NormalizeOrder(*o), Settled: o.PaymentStatus.IsSettled(), Terminal: o.PaymentStatus.IsTerminal()}
	if cp, ok := LatestCheckpoint(*o); ok {
		d.LatestCheckpoint = &cp
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetCheckout(c echo.Context) error {
	u, err := h.svc.Checkout(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNoCheckoutURL) {
			return echo.NewHTTPError(http.StatusNotFound, "order has no checkout url")
		}
		return middleware.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"checkout_url": u})
}
