package dashboard

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/practice/console/internal/platform/apiclient"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func TestRepoHTTP(t *testing.T) {
	var booked string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /providerdashboard/":
			w.Write([]byte(`{"total_patients":2,"recent_patients":[]}`))
		case "GET /providerdashboard/7/":
			w.Write([]byte(`{"id":7,"first_name":"Ada","notes":[]}`))
		case "GET /provider/all-patients/":
			w.Write([]byte(`{"patients":[{"id":7,"first_name":"Ada","subscription_status":"active"}]}`))
		case "POST /appointments/book-patient/":
			b, _ := io.ReadAll(r.Body)
			booked = string(b)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":11,"patient_id":7,"date":"2024-03-01","time":"09:30","status":"booked"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not found."}`))
		}
	}))
	defer srv.Close()
	repo := NewRepoHTTP(apiclient.New(srv.URL, staticToken("tok")))
	ctx := context.Background()

	d, err := repo.Dashboard(ctx)
	if err != nil || d.TotalPatients != 2 {
		t.Errorf("dashboard: %+v %v", d, err)
	}
	p, err := repo.PatientDetail(ctx, "7")
	if err != nil || p.FirstName != "Ada" || p.Extra["notes"] == nil {
		t.Errorf("patient detail: %+v %v", p, err)
	}
	all, err := repo.AllPatients(ctx)
	if err != nil || len(all) != 1 || all[0].SubscriptionStatus != SubscriptionActive {
		t.Errorf("all patients: %+v %v", all, err)
	}
	a, err := repo.BookAppointment(ctx, &BookAppointmentRequest{PatientID: "7", Date: "2024-03-01", Time: "09:30", Reason: "Review"})
	if err != nil || a.ID != "11" {
		t.Errorf("book: %+v %v", a, err)
	}
	if !strings.Contains(booked, `"patient_id":7`) {
		t.Errorf("expected numeric patient id in body, got %s", booked)
	}

	_, err = repo.PatientDetail(ctx, "99")
	if !apiclient.IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404, got %v", err)
	}
}
