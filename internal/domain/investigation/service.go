package investigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrRequestNotFound   = errors.New("investigation request not found")
	ErrRequestIDRequired = errors.New("investigation request id is required to create an order")
)

// ReferenceData is what the request form needs before it can be filled in.
// Error carries a load failure; the lists are then empty but usable.
type ReferenceData struct {
	Listings Catalog      `json:"listings"`
	Patients []PatientRef `json:"patients"`
	Error    string       `json:"error,omitempty"`
}

type Service struct {
	repo   Repository
	loc    *time.Location
	logger zerolog.Logger
}

func NewService(repo Repository, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, logger: logger.With().Str("component", "investigation").Logger()}
}

func (s *Service) LoadAvailableTests(ctx context.Context) (Catalog, string) {
	listings, err := s.repo.DefaultListings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load available tests")
		return Catalog{}, "Failed to load available tests: " + err.Error()
	}
	return Catalog(listings), ""
}

func (s *Service) LoadPatients(ctx context.Context) ([]PatientRef, string) {
	patients, err := s.repo.Patients(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load patients")
		return []PatientRef{}, "Failed to load patients: " + err.Error()
	}
	return patients, ""
}

func (s *Service) LoadReferenceData(ctx context.Context) ReferenceData {
	var rd ReferenceData
	var listingsErr, patientsErr string
	rd.Listings, listingsErr = s.LoadAvailableTests(ctx)
	rd.Patients, patientsErr = s.LoadPatients(ctx)
	switch {
	case listingsErr != "":
		rd.Error = listingsErr
	case patientsErr != "":
		rd.Error = patientsErr
	}
	return rd
}

// AttachListings resolves a listing for every line that has a test type but
// no listing yet.
func (s *Service) AttachListings(ctx context.Context, f *Form) error {
	missing := false
	for _, l := range f.Lines {
		if l.Listing == nil && strings.TrimSpace(l.TestType) != "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}
	listings, err := s.repo.DefaultListings(ctx)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}
	catalog := Catalog(listings)
	for i, l := range f.Lines {
		if l.Listing == nil {
			f.SetTestType(i, l.TestType, catalog)
		}
	}
	return nil
}

// Submit validates the form and creates or updates the request. On success
// the form is reset; on failure its Error holds the message. Nothing is
// retried.
func (s *Service) Submit(ctx context.Context, f *Form) (*ManageResponse, error) {
	payload, err := f.Payload(s.loc)
	if err != nil {
		f.State = StateFailed
		f.Error = err.Error()
		return nil, err
	}
	f.State = StateValid

	editing := f.Editing()
	f.State = StateSubmitting
	f.Error = ""
	resp, err := s.repo.Manage(ctx, payload)
	if err != nil {
		f.State = StateFailed
		f.Error = err.Error()
		s.logger.Error().Err(err).
			Str("patient_id", payload.PatientID.String()).
			Bool("editing", editing).
			Msg("submit investigation request")
		return nil, err
	}

	f.Reset()
	if editing {
		f.State = StateUpdated
	} else {
		f.State = StateCreated
	}
	s.logger.Info().
		Str("patient_id", payload.PatientID.String()).
		Int("investigations", len(payload.Investigations)).
		Bool("editing", editing).
		Msg("investigation request saved")
	return resp, nil
}

// CreateOrder turns a request into a payable order. Every line is priced
// against the catalog as it is now, not as it was when the request was made.
func (s *Service) CreateOrder(ctx context.Context, req InvestigationRequest) (*ManageResponse, error) {
	if req.ID.IsZero() {
		return nil, ErrRequestIDRequired
	}
	listings, err := s.repo.DefaultListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	catalog := Catalog(listings)

	payload := &ManagePayload{
		InvestigationRequestID: req.ID,
		PatientID:              req.PatientID,
		PaymentMethod:          req.PaymentMethod,
		CreateOrder:            true,
		Investigations:         make([]LinePayload, 0, len(req.Investigations)),
	}
	for i, inv := range req.Investigations {
		ref, err := ResolveListingForInvestigation(inv, catalog)
		if err != nil {
			return nil, fmt.Errorf("investigation %d: %w", i+1, err)
		}
		if old := inv.Price(); old.Positive() && old != ref.Price {
			s.logger.Info().
				Str("request_id", req.ID.String()).
				Str("test_type", inv.TestType).
				Float64("requested_price", old.Float()).
				Float64("current_price", ref.Price.Float()).
				Msg("listing price changed since request")
		}
		payload.Investigations = append(payload.Investigations, LinePayload{
			ID:            inv.ID,
			TestType:      inv.TestType,
			Reason:        inv.Reason,
			ScheduledTime: serverTime(inv.ScheduledTime),
			Listing:       ref,
		})
	}

	resp, err := s.repo.Manage(ctx, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID.String()).Msg("create investigation order")
		return nil, err
	}
	return resp, nil
}

func serverTime(v string) string {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return v
	}
	return t.UTC().Format(PayloadTimeLayout)
}

func (s *Service) PendingInvestigations(ctx context.Context, days int) ([]InvestigationRequest, error) {
	return s.repo.PendingInvestigations(ctx, days)
}

// RequestByID finds a request among the pending ones.
func (s *Service) RequestByID(ctx context.Context, id string) (*InvestigationRequest, error) {
	reqs, err := s.repo.PendingInvestigations(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if reqs[i].ID.String() == id {
			return &reqs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
}

// EditForm hydrates an edit form from the stored version of a request.
func (s *Service) EditForm(ctx context.Context, id string) (*Form, error) {
	req, err := s.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewEditForm(*req), nil
}

func (s *Service) ListOrders(ctx context.Context) ([]InvestigationOrder, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*InvestigationOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// Checkout returns the payment link of an order.
func (s *Service) Checkout(ctx context.Context, id string) (string, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := CheckoutURL(NormalizeOrder(*o))
	if err != nil {
		s.logger.Warn().Str("order_id", id).Msg("order has no checkout url")
		return "", err
	}
	return u, nil
}
