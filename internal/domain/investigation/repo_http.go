package investigation

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/practice/console/internal/platform/apiclient"
	"github.com/practice/console/pkg/wire"
)

const (
	pathDefaultListings = "/provider-investigations/default_listings/"
	pathPending         = "/provider-investigations/pending_investigations/"
	pathManage          = "/provider-investigations/manage/"
	pathOrders          = "/investigation-orders/"
	pathAllPatients     = "/provider/all-patients/"
)

type repoHTTP struct{ client *apiclient.Client }

func NewRepoHTTP(client *apiclient.Client) Repository {
	return &repoHTTP{client: client}
}

func (r *repoHTTP) getList(ctx context.Context, path string, query url.Values, out any, keys ...string) error {
	var raw json.RawMessage
	if err := r.client.Get(ctx, path, query, &raw); err != nil {
		return err
	}
	if err := wire.DecodeList(raw, out, keys...); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (r *repoHTTP) DefaultListings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	if err := r.getList(ctx, pathDefaultListings, nil, &out, "listings", "default_listings"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoHTTP) Patients(ctx context.Context) ([]PatientRef, error) {
	var out []PatientRef
	if err := r.getList(ctx, pathAllPatients, nil, &out, "patients"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoHTTP) PendingInvestigations(ctx context.Context, days int) ([]InvestigationRequest, error) {
	var q url.Values
	if days > 0 {
		q = url.Values{"days": {strconv.Itoa(days)}}
	}
	var out []InvestigationRequest
	if err := r.getList(ctx, pathPending, q, &out, "investigation_requests", "pending_investigations"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoHTTP) Manage(ctx context.Context, p *ManagePayload) (*ManageResponse, error) {
	var out ManageResponse
	if err := r.client.Post(ctx, pathManage, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repoHTTP) ListOrders(ctx context.Context) ([]InvestigationOrder, error) {
	var out []InvestigationOrder
	if err := r.getList(ctx, pathOrders, nil, &out, "orders"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoHTTP) GetOrder(ctx context.Context, id string) (*InvestigationOrder, error) {
	var out InvestigationOrder
	if err := r.client.Get(ctx, pathOrders+url.PathEscape(id)+"/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
