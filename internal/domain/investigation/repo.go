package investigation

import (
	"context"
)

// Repository is the remote investigation API.
type Repository interface {
	DefaultListings(ctx context.Context) ([]Listing, error)
	Patients(ctx context.Context) ([]PatientRef, error)
	PendingInvestigations(ctx context.Context, days int) ([]InvestigationRequest, error)
	// Manage creates a request when p.InvestigationRequestID is empty and
	// updates it otherwise.
	Manage(ctx context.Context, p *ManagePayload) (*ManageResponse, error)
	ListOrders(ctx context.Context) ([]InvestigationOrder, error)
	GetOrder(ctx context.Context, id string) (*InvestigationOrder, error)
}
