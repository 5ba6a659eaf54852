package investigation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/practice/console/pkg/wire"
)

const (
	// DateTimeLayout is the form's minute-precision local date-time value.
	DateTimeLayout = "2006-01-02T15:04"
	// PayloadTimeLayout is the UTC timestamp the manage endpoint expects.
	PayloadTimeLayout = "2006-01-02T15:04:05.000Z"
)

var ErrPatientLocked = errors.New("patient cannot be changed while editing a request")

// State is the lifecycle of one request form.
type State string

const (
	StateDraft      State = "draft"
	StateValid      State = "valid"
	StateSubmitting State = "submitting"
	StateCreated    State = "created"
	StateUpdated    State = "updated"
	StateFailed     State = "failed"
)

// ValidationError is a local, pre-network rejection. Index is 1-based and 0
// for form-level problems.
type ValidationError struct {
	Index   int    `json:"index,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// Draft is one line item as the form edits it.
type Draft struct {
	ID                wire.FlexID `json:"id,omitempty"`
	TestType          string      `json:"testType"`
	Reason            string      `json:"reason"`
	ScheduledDateTime string      `json:"scheduledDateTime"`
	Listing           *ListingRef `json:"listing,omitempty"`
}

// Form holds an investigation request being created or edited.
type Form struct {
	PatientID     wire.FlexID `json:"patient_id"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Lines         []Draft     `json:"investigations"`
	EditingID     wire.FlexID `json:"editing_id,omitempty"`
	State         State       `json:"state"`
	Error         string      `json:"error,omitempty"`
}

func NewForm() *Form {
	return &Form{State: StateDraft}
}

// NewEditForm hydrates a form from an existing request. The patient is fixed
// for the lifetime of the edit.
func NewEditForm(req InvestigationRequest) *Form {
	return &Form{
		PatientID:     req.PatientID,
		PaymentMethod: req.PaymentMethod,
		Lines:         MapEditInvestigations(req),
		EditingID:     req.ID,
		State:         StateDraft,
	}
}

func (f *Form) Editing() bool {
	return !f.EditingID.IsZero()
}

func (f *Form) SetPatient(id wire.FlexID) error {
	if f.Editing() {
		return ErrPatientLocked
	}
	f.PatientID = id
	return nil
}

// ApplyEdit overlays caller changes on a hydrated edit form. A patient other
// than the stored one is rejected with ErrPatientLocked. Nil lines keep the
// stored lines.
func (f *Form) ApplyEdit(patientID wire.FlexID, paymentMethod string, lines []Draft) error {
	if !patientID.IsZero() && patientID != f.PatientID {
		if err := f.SetPatient(patientID); err != nil {
			return err
		}
	}
	if paymentMethod != "" {
		f.PaymentMethod = paymentMethod
	}
	if lines != nil {
		f.Lines = lines
	}
	return nil
}

func (f *Form) AddLine(d Draft) {
	f.Lines = append(f.Lines, d)
}

func (f *Form) RemoveLine(i int) {
	if i < 0 || i >= len(f.Lines) {
		return
	}
	f.Lines = append(f.Lines[:i], f.Lines[i+1:]...)
}

// SetTestType updates the test name of line i and re-resolves its listing.
// An unmatched name clears the listing.
func (f *Form) SetTestType(i int, name string, catalog Catalog) {
	if i < 0 || i >= len(f.Lines) {
		return
	}
	f.Lines[i].TestType = name
	if l, ok := catalog.FindListingByTestName(name); ok {
		ref := l.Ref()
		f.Lines[i].Listing = &ref
		return
	}
	f.Lines[i].Listing = nil
}

// Reset clears the form back to an empty new request.
func (f *Form) Reset() {
	*f = Form{State: StateDraft}
}

// Validate checks the form in order and stops at the first problem.
func (f *Form) Validate() error {
	if f.PatientID.IsZero() {
		return &ValidationError{Field: "patient_id", Message: "Please select a patient"}
	}
	if len(f.Lines) == 0 {
		return &ValidationError{Field: "investigations", Message: "Please add at least one investigation"}
	}
	for i, line := range f.Lines {
		n := i + 1
		if strings.TrimSpace(line.TestType) == "" {
			return &ValidationError{Index: n, Field: "testType",
				Message: fmt.Sprintf("Investigation %d: test type is required", n)}
		}
		if line.Listing == nil {
			return &ValidationError{Index: n, Field: "listing",
				Message: fmt.Sprintf("Investigation %d: please select a test from the available listings", n)}
		}
		if strings.TrimSpace(line.Reason) == "" {
			return &ValidationError{Index: n, Field: "reason",
				Message: fmt.Sprintf("Investigation %d: reason is required", n)}
		}
		if !line.Listing.Price.Positive() {
			return &ValidationError{Index: n, Field: "price",
				Message: fmt.Sprintf("Investigation %d must have a valid price greater than zero", n)}
		}
	}
	return nil
}

// Payload validates the form and builds the manage body. Scheduled times are
// read in loc and sent in UTC.
func (f *Form) Payload(loc *time.Location) (*ManagePayload, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	p := &ManagePayload{
		InvestigationRequestID: f.EditingID,
		PatientID:              f.PatientID,
		PaymentMethod:          f.PaymentMethod,
		Investigations:         make([]LinePayload, 0, len(f.Lines)),
	}
	for i, line := range f.Lines {
		scheduled, err := payloadTime(line.ScheduledDateTime, loc)
		if err != nil {
			return nil, &ValidationError{Index: i + 1, Field: "scheduledDateTime",
				Message: fmt.Sprintf("Investigation %d: invalid scheduled time %q", i+1, line.ScheduledDateTime)}
		}
		p.Investigations = append(p.Investigations, LinePayload{
			ID:            line.ID,
			TestType:      strings.TrimSpace(line.TestType),
			Reason:        strings.TrimSpace(line.Reason),
			ScheduledTime: scheduled,
			Listing:       *line.Listing,
		})
	}
	return p, nil
}

func payloadTime(v string, loc *time.Location) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	t, err := time.ParseInLocation(DateTimeLayout, v, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return "", err
		}
	}
	return t.UTC().Format(PayloadTimeLayout), nil
}

// CalculateTotal sums the listing prices of the lines. Lines without a
// listing or with an unparseable price contribute nothing.
func CalculateTotal(lines []Draft) float64 {
	var total float64
	for _, l := range lines {
		if l.Listing == nil || l.Listing.Price.IsNaN() {
			continue
		}
		total += l.Listing.Price.Float()
	}
	return total
}

// MapEditInvestigations converts server line items into form lines. Items
// without a listing get one synthesized from their test type and cost.
func MapEditInvestigations(req InvestigationRequest) []Draft {
	lines := make([]Draft, 0, len(req.Investigations))
	for _, inv := range req.Investigations {
		d := Draft{
			ID:                inv.ID,
			TestType:          inv.TestType,
			Reason:            inv.Reason,
			ScheduledDateTime: formDateTime(inv.ScheduledTime),
		}
		if inv.Listing != nil {
			ref := *inv.Listing
			d.Listing = &ref
		} else {
			currency := inv.Currency
			if currency == "" {
				currency = DefaultCurrency
			}
			d.Listing = &ListingRef{Code: inv.TestType, Price: inv.Cost, Currency: currency}
		}
		lines = append(lines, d)
	}
	return lines
}

func formDateTime(v string) string {
	if v == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", DateTimeLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Format(DateTimeLayout)
		}
	}
	return ""
}
