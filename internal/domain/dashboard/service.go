package dashboard

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/practice/console/internal/platform/validation"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "dashboard").Logger()}
}

func (s *Service) Dashboard(ctx context.Context) (*ProviderDashboard, error) {
	return s.repo.Dashboard(ctx)
}

func (s *Service) PatientDetail(ctx context.Context, patientID string) (*PatientDetail, error) {
	return s.repo.PatientDetail(ctx, patientID)
}

// PatientFilter narrows the patient list. Zero values match everything.
type PatientFilter struct {
	Status SubscriptionStatus
	Query  string
}

func (f PatientFilter) match(p Patient) bool {
	if f.Status != "" && p.SubscriptionStatus.Normalized() != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.FullName()), q) ||
		strings.Contains(p.PhoneNumber, q) ||
		strings.Contains(strings.ToLower(p.Email), q)
}

// AllPatients lists the provider's patients, filtered locally.
func (s *Service) AllPatients(ctx context.Context, f PatientFilter) ([]Patient, error) {
	patients, err := s.repo.AllPatients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Patient, 0, len(patients))
	for _, p := range patients {
		if f.match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// CountBySubscription tallies patients per subscription status.
func CountBySubscription(patients []Patient) map[SubscriptionStatus]int {
	counts := map[SubscriptionStatus]int{
		SubscriptionActive:  0,
		SubscriptionPending: 0,
		SubscriptionChurned: 0,
		SubscriptionNone:    0,
	}
	for _, p := range patients {
		counts[p.SubscriptionStatus.Normalized()]++
	}
	return counts
}

func (s *Service) CreatePatient(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.PhoneNumber = strings.ReplaceAll(strings.TrimSpace(req.PhoneNumber), " ", "")
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	p, err := s.repo.CreatePatient(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Msg("create patient")
		return nil, err
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient created")
	return p, nil
}

func (s *Service) BookAppointment(ctx context.Context, req *BookAppointmentRequest) (*Appointment, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	a, err := s.repo.BookAppointment(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", req.PatientID.String()).Msg("book appointment")
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", req.PatientID.String()).
		Str("date", req.Date).
		Str("time", req.Time).
		Msg("appointment booked")
	return a, nil
}
