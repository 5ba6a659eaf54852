package investigation

import (
	"errors"
	"time"
)

var ErrNoCheckoutURL = errors.New("no checkout url available")

type ViewKind string

const (
	KindRequest ViewKind = "request"
	KindOrder   ViewKind = "order"
)

// View is the display shape shared by requests and orders. Only RequestView
// and OrderView implement it.
type View interface {
	Kind() ViewKind
	Total() float64
	Lines() []Investigation
	isView()
}

// RequestView renders an investigation request that has no order yet.
type RequestView struct {
	ID             string          `json:"id"`
	PatientID      string          `json:"patient_id"`
	PatientName    string          `json:"patient_name,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Created        string          `json:"created,omitempty"`
	TotalCost      float64         `json:"total_cost"`
	Investigations []Investigation `json:"investigations"`
}

func (v RequestView) Kind() ViewKind        { return KindRequest }
func (v RequestView) Total() float64        { return v.TotalCost }
func (v RequestView) Lines() []Investigation { return v.Investigations }

func (RequestView) isView() {}

// OrderView renders a payable order.
type OrderView struct {
	ID                     string              `json:"id"`
	InvestigationRequestID string              `json:"investigation_request_id,omitempty"`
	PatientName            string              `json:"patient_name,omitempty"`
	PaymentStatus          PaymentStatus       `json:"payment_status"`
	TotalAmount            float64             `json:"total_amount"`
	Currency               string              `json:"currency"`
	CheckoutURL            string              `json:"checkout_url,omitempty"`
	PaymentCheckpoints     []PaymentCheckpoint `json:"payment_checkpoints,omitempty"`
	Investigations         []Investigation     `json:"investigations,omitempty"`
	Created                string              `json:"created,omitempty"`
}

func (v OrderView) Kind() ViewKind        { return KindOrder }
func (v OrderView) Total() float64        { return v.TotalAmount }
func (v OrderView) Lines() []Investigation { return v.Investigations }

func (OrderView) isView() {}

// NormalizeRequest builds the view of a request. A missing or unusable
// total_cost is recomputed from the line prices.
func NormalizeRequest(req InvestigationRequest) RequestView {
	total := req.TotalCost.Float()
	if !req.TotalCost.Positive() {
		total = 0
		for _, inv := range req.Investigations {
			if p := inv.Price(); p.Positive() {
				total += p.Float()
			}
		}
	}
	return RequestView{
		ID:             req.ID.String(),
		PatientID:      req.PatientID.String(),
		PatientName:    req.PatientName,
		PaymentMethod:  req.PaymentMethod,
		Created:        req.Created,
		TotalCost:      total,
		Investigations: req.Investigations,
	}
}

func NormalizeOrder(o InvestigationOrder) OrderView {
	total := o.TotalAmount.Float()
	if o.TotalAmount.IsNaN() {
		total = 0
	}
	return OrderView{
		ID:                     o.ID.String(),
		InvestigationRequestID: o.InvestigationRequestID.String(),
		PatientName:            o.PatientName,
		PaymentStatus:          o.PaymentStatus,
		TotalAmount:            total,
		Currency:               o.Currency,
		CheckoutURL:            o.CheckoutURL,
		PaymentCheckpoints:     o.PaymentCheckpoints,
		Investigations:         o.Investigations,
		Created:                o.Created,
	}
}

// CheckoutURL returns the payment link of an order view. Requests never have one.
func CheckoutURL(v View) (string, error) {
	if o, ok := v.(OrderView); ok && o.CheckoutURL != "" {
		return o.CheckoutURL, nil
	}
	return "", ErrNoCheckoutURL
}

// LatestCheckpoint returns the most recent payment checkpoint by created
// time. Checkpoints with unparseable timestamps keep their list position.
func LatestCheckpoint(o InvestigationOrder) (PaymentCheckpoint, bool) {
	if len(o.PaymentCheckpoints) == 0 {
		return PaymentCheckpoint{}, false
	}
	best := o.PaymentCheckpoints[0]
	bestAt, _ := time.Parse(time.RFC3339, best.Created)
	for _, cp := range o.PaymentCheckpoints[1:] {
		at, err := time.Parse(time.RFC3339, cp.Created)
		if err != nil || !at.Before(bestAt) {
			best, bestAt = cp, at
		}
	}
	return best, true
}
