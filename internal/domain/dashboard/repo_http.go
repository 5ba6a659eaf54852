package dashboard

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/practice/console/internal/platform/apiclient"
	"github.com/practice/console/pkg/wire"
)

const (
	pathDashboard   = "/providerdashboard/"
	pathAllPatients = "/provider/all-patients/"
	pathPatients    = "/patients/"
	pathBook        = "/appointments/book-patient/"
)

type repoHTTP struct{ client *apiclient.Client }

func NewRepoHTTP(client *apiclient.Client) Repository {
	return &repoHTTP{client: client}
}

func (r *repoHTTP) Dashboard(ctx context.Context) (*ProviderDashboard, error) {
	var out ProviderDashboard
	if err := r.client.Get(ctx, pathDashboard, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) PatientDetail(ctx context.Context, patientID string) (*PatientDetail, error) {
	var out PatientDetail
	if err := r.client.Get(ctx, pathDashboard+url.PathEscape(patientID)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) AllPatients(ctx context.Context) ([]Patient, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, pathAllPatients, nil, &raw); err != nil {
		return nil, err
	}
	var out []Patient
	if err := wire.DecodeList(raw, &out, "patients"); err != nil {
		return nil, fmt.Errorf("decode %s: %w", pathAllPatients, err)
	}
	return out, nil
}

func (r *repoHTTP) CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	var out Patient
	if err := r.client.Post(ctx, pathPatients, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) BookAppointment(ctx context.Context, req *BookAppointmentRequest) (*Appointment, error) {
	var out Appointment
	if err := r.client.Post(ctx, pathBook, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
