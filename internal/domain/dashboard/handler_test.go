package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func TestHandler_GetDashboard(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := h.GetDashboard(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var d ProviderDashboard
	json.Unmarshal(rec.Body.Bytes(), &d)
	if d.TotalPatients != 3 {
		t.Errorf("expected 3 patients, got %d", d.TotalPatients)
	}
}

func TestHandler_GetPatientDetail(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.GetPatientDetail(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"first_name":"Tunde"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?status=active", nil)
	rec := httptest.NewRecorder()

	if err := h.ListPatients(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct {
		Data  []Patient `json:"data"`
		Total int       `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Total != 1 || out.Data[0].FirstName != "Ada" {
		t.Errorf("unexpected page %+v", out)
	}
}

func TestHandler_ListPatients_BadStatus(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/?status=vip", nil)
	rec := httptest.NewRecorder()

	err := h.ListPatients(e.NewContext(req, rec))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"first_name":"Chidi","last_name":"Okafor","phone_number":"+2348030000004","gender":"male"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreatePatient(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_CreatePatient_Invalid(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"last_name":"Okafor","phone_number":"+2348030000004"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.CreatePatient(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest || he.Message != "first_name is required" {
		t.Errorf("expected first_name validation error, got %v", err)
	}
}

func TestHandler_BookAppointment(t *testing.T) {
	h, repo, e := newTestHandler()
	body := `{"patient_id":1,"date":"2024-03-01","time":"09:30","reason":"Follow-up","channel":"video"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.BookAppointment(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.appointments) != 1 || repo.appointments[0].PatientID != "1" {
		t.Errorf("unexpected bookings %+v", repo.appointments)
	}
}
