package dashboard

import (
	"github.com/goccy/go-json"

	"github.com/practice/console/pkg/wire"
)

// SubscriptionStatus is classified by the server from the subscription's
// is_active and end_date. The console only labels it.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionPending SubscriptionStatus = "pending"
	SubscriptionChurned SubscriptionStatus = "churned"
	SubscriptionNone    SubscriptionStatus = "no_subscription"
)

var subscriptionLabels = map[SubscriptionStatus]string{
	SubscriptionActive:  "Active",
	SubscriptionPending: "Pending",
	SubscriptionChurned: "Churned",
	SubscriptionNone:    "No subscription",
}

func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionLabels[s]
	return ok
}

// Label is the display text. A missing status reads as no subscription.
func (s SubscriptionStatus) Label() string {
	if s == "" {
		return subscriptionLabels[SubscriptionNone]
	}
	if l, ok := subscriptionLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// Normalized maps an empty status to no_subscription and leaves the rest.
func (s SubscriptionStatus) Normalized() SubscriptionStatus {
	if s == "" {
		return SubscriptionNone
	}
	return s
}

// Patient is the summary projection returned by the patient lists.
type Patient struct {
	ID                 wire.FlexID        `json:"id"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	PhoneNumber        string             `json:"phone_number"`
	Email              string             `json:"email,omitempty"`
	Gender             string             `json:"gender,omitempty"`
	DateOfBirth        string             `json:"date_of_birth,omitempty"`
	ChronicConditions  []string           `json:"chronic_conditions,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
}

func (p Patient) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	}
	return p.LastName
}

// ProviderDashboard is the provider's landing summary. Fields the console
// does not know are kept in Extra and written back out unchanged.
type ProviderDashboard struct {
	TotalPatients         int                        `json:"total_patients"`
	ActiveSubscriptions   int                        `json:"active_subscriptions"`
	PendingInvestigations int                        `json:"pending_investigations"`
	UpcomingAppointments  int                        `json:"upcoming_appointments"`
	UnreadMessages        int                        `json:"unread_messages"`
	RecentPatients        []Patient                  `json:"recent_patients"`
	Extra                 map[string]json.RawMessage `json:"-"`
}

type providerDashboardFields ProviderDashboard

var dashboardKeys = []string{
	"total_patients", "active_subscriptions", "pending_investigations",
	"upcoming_appointments", "unread_messages", "recent_patients",
}

func (d *ProviderDashboard) UnmarshalJSON(b []byte) error {
	var f providerDashboardFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := extraFields(b, dashboardKeys)
	if err != nil {
		return err
	}
	*d = ProviderDashboard(f)
	d.Extra = extra
	return nil
}

func (d ProviderDashboard) MarshalJSON() ([]byte, error) {
	return mergeExtra(providerDashboardFields(d), d.Extra)
}

// PatientDetail is one patient as the provider dashboard shows it: the summary
// plus whatever history the server attaches.
type PatientDetail struct {
	Patient
	Extra map[string]json.RawMessage `json:"-"`
}

var patientKeys = []string{
	"id", "first_name", "last_name", "phone_number", "email", "gender",
	"date_of_birth", "chronic_conditions", "subscription_status",
}

func (p *PatientDetail) UnmarshalJSON(b []byte) error {
	var summary Patient
	if err := json.Unmarshal(b, &summary); err != nil {
		return err
	}
	extra, err := extraFields(b, patientKeys)
	if err != nil {
		return err
	}
	p.Patient = summary
	p.Extra = extra
	return nil
}

func (p PatientDetail) MarshalJSON() ([]byte, error) {
	return mergeExtra(p.Patient, p.Extra)
}

func extraFields(b []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := out[k]; !ok {
			out[k] = raw
		}
	}
	return json.Marshal(out)
}

// CreatePatientRequest is the body of POST /patients/.
type CreatePatientRequest struct {
	FirstName         string   `json:"first_name" validate:"required,max=100"`
	LastName          string   `json:"last_name" validate:"required,max=100"`
	PhoneNumber       string   `json:"phone_number" validate:"required,phone_number"`
	Email             string   `json:"email,omitempty" validate:"omitempty,email"`
	Gender            string   `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	DateOfBirth       string   `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
}

// BookAppointmentRequest is the body of POST /appointments/book-patient/.
type BookAppointmentRequest struct {
	PatientID wire.FlexID `json:"patient_id" validate:"required"`
	Date      string      `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string      `json:"time" validate:"required,datetime=15:04"`
	Reason    string      `json:"reason" validate:"required,max=500"`
	Channel   string      `json:"channel,omitempty" validate:"omitempty,oneof=in_person video phone"`
}

type Appointment struct {
	ID        wire.FlexID `json:"id"`
	PatientID wire.FlexID `json:"patient_id"`
	Date      string      `json:"date"`
	Time      string      `json:"time"`
	Reason    string      `json:"reason,omitempty"`
	Channel   string      `json:"channel,omitempty"`
	Status    string      `json:"status,omitempty"`
}
