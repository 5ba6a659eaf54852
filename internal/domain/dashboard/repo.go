package dashboard

import "context"

type Repository interface {
	Dashboard(ctx context.Context) (*ProviderDashboard, error)
	PatientDetail(ctx context.Context, patientID string) (*PatientDetail, error)
	AllPatients(ctx context.Context) ([]Patient, error)
	CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	BookAppointment(ctx context.Context, req *BookAppointmentRequest) (*Appointment, error)
}
