package investigation

import (
	"github.com/practice/console/pkg/wire"
)

// DefaultCurrency is assumed for hydrated line items that carry no currency.
const DefaultCurrency = "NGN"

// Listing is a billable catalog entry for a lab test.
type Listing struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Price    wire.Amount `json:"price"`
	Currency string      `json:"currency"`
	Category string      `json:"category,omitempty"`
}

// Ref returns the reference a line item carries for this listing.
func (l Listing) Ref() ListingRef {
	return ListingRef{Code: l.Code, Price: l.Price, Currency: l.Currency}
}

// ListingRef is the catalog reference attached to a line item.
type ListingRef struct {
	Code     string      `json:"code"`
	Price    wire.Amount `json:"price"`
	Currency string      `json:"currency"`
}

// Investigation is one requested test as the server returns it.
type Investigation struct {
	ID                wire.FlexID `json:"id,omitempty"`
	TestType          string      `json:"test_type"`
	Reason            string      `json:"reason,omitempty"`
	ScheduledTime     string      `json:"scheduled_time,omitempty"`
	Listing           *ListingRef `json:"listing,omitempty"`
	Cost              wire.Amount `json:"cost,omitempty"`
	Currency          string      `json:"currency,omitempty"`
	FulfillmentStatus string      `json:"fulfillment_status,omitempty"`
}

// Price is the listing price, falling back to the recorded cost.
func (inv Investigation) Price() wire.Amount {
	if inv.Listing != nil {
		return inv.Listing.Price
	}
	return inv.Cost
}

// InvestigationRequest groups line items for one patient before an order exists.
type InvestigationRequest struct {
	ID             wire.FlexID     `json:"id"`
	PatientID      wire.FlexID     `json:"patient_id"`
	PatientName    string          `json:"patient_name,omitempty"`
	Investigations []Investigation `json:"investigations"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Created        string          `json:"created,omitempty"`
	TotalCost      wire.Amount     `json:"total_cost,omitempty"`
}

// PaymentStatus is the server-side payment state of an order.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

var validPaymentStatuses = map[PaymentStatus]bool{
	PaymentPending: true, PaymentPaid: true, PaymentFailed: true, PaymentRefunded: true,
	PaymentProcessing: true, PaymentCompleted: true, PaymentCancelled: true,
}

func (s PaymentStatus) Valid() bool { return validPaymentStatuses[s] }

// IsSettled reports whether money has been received.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentPaid || s == PaymentCompleted
}

// IsTerminal reports whether the order can no longer change payment state.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentPaid, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// PaymentCheckpoint is one recorded step of an order's payment history.
type PaymentCheckpoint struct {
	Status    PaymentStatus `json:"status"`
	Amount    wire.Amount   `json:"amount"`
	Currency  string        `json:"currency"`
	Created   string        `json:"created"`
	SettledAt string        `json:"settled_at,omitempty"`
}

// InvestigationOrder is the payable resource created from a request. The
// client only reads it.
type InvestigationOrder struct {
	ID                     wire.FlexID         `json:"id"`
	InvestigationRequestID wire.FlexID         `json:"investigation_request_id,omitempty"`
	PatientID              wire.FlexID         `json:"patient_id,omitempty"`
	PatientName            string              `json:"patient_name,omitempty"`
	PaymentStatus          PaymentStatus       `json:"payment_status"`
	TotalAmount            wire.Amount         `json:"total_amount"`
	Currency               string              `json:"currency"`
	CheckoutURL            string              `json:"checkout_url,omitempty"`
	PaymentCheckpoints     []PaymentCheckpoint `json:"payment_checkpoints,omitempty"`
	Investigations         []Investigation     `json:"investigations,omitempty"`
	Created                string              `json:"created,omitempty"`
}

// PatientRef is the patient picker entry used by the request form.
type PatientRef struct {
	ID          wire.FlexID `json:"id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	PhoneNumber string      `json:"phone_number,omitempty"`
}

func (p PatientRef) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	}
	return p.PhoneNumber
}

// LinePayload is one line item as the manage endpoint expects it.
type LinePayload struct {
	ID            wire.FlexID `json:"id,omitempty"`
	TestType      string      `json:"testType"`
	Reason        string      `json:"reason"`
	ScheduledTime string      `json:"scheduledTime,omitempty"`
	Listing       ListingRef  `json:"listing"`
}

// ManagePayload is the unified create/update body for investigation requests.
type ManagePayload struct {
	InvestigationRequestID wire.FlexID   `json:"investigation_request_id,omitempty"`
	PatientID              wire.FlexID   `json:"patient_id"`
	Investigations         []LinePayload `json:"investigations"`
	CreateOrder            bool          `json:"create_order"`
	PaymentMethod          string        `json:"payment_method,omitempty"`
}

// ManageResponse is what the manage endpoint returns. Order is set only when
// the call asked for one.
type ManageResponse struct {
	Message              string                `json:"message,omitempty"`
	InvestigationRequest *InvestigationRequest `json:"investigation_request,omitempty"`
	Order                *InvestigationOrder   `json:"order,omitempty"`
	CheckoutURL          string                `json:"checkout_url,omitempty"`
}
