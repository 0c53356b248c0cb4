package orders

import (
	"context"
	"net/http"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
)

// AcceptanceUpdate carries one line-item acceptance change.
type AcceptanceUpdate struct {
	OrderID  string `json:"order_id"`
	ItemID   string `json:"item_id"`
	Accepted int    `json:"accepted_units"`
	Note     string `json:"note,omitempty"`
}

// PaymentInput is a new ledger entry.
type PaymentInput struct {
	Amount  float64 `json:"amount"`
	Note    string  `json:"note,omitempty"`
	AdminID string  `json:"admin_id,omitempty"`
}

// Gateway defines the seller API operations the order pages need.
type Gateway interface {
	List(ctx context.Context, filters shared.ListFilters) (upstream.Page[Summary], error)
	Get(ctx context.Context, id string) (Order, error)
	SetStatus(ctx context.Context, id string, status Status) error
	SetAcceptance(ctx context.Context, update AcceptanceUpdate) error
	Payments(ctx context.Context, id string) ([]Payment, error)
	AddPayment(ctx context.Context, id string, input PaymentInput) error
}

type apiGateway struct {
	client *upstream.Client
	list   *upstream.Resource[Summary]
}

// NewGateway binds the gateway to the admin order endpoints.
func NewGateway(client *upstream.Client) Gateway {
	return &apiGateway{
		client: client,
		list:   upstream.NewResource[Summary](client, "/order/admin"),
	}
}

func (g *apiGateway) List(ctx context.Context, filters shared.ListFilters) (upstream.Page[Summary], error) {
	return g.list.List(ctx, filters)
}

func (g *apiGateway) Get(ctx context.Context, id string) (Order, error) {
	var order Order
	err := g.client.Do(ctx, http.MethodGet, "/order/admin/"+id, nil, nil, &order)
	return order, err
}

func (g *apiGateway) SetStatus(ctx context.Context, id string, status Status) error {
	body := map[string]string{"status": string(status)}
	return g.client.Do(ctx, http.MethodPut, "/order/admin/"+id+"/status", nil, body, nil)
}

func (g *apiGateway) SetAcceptance(ctx context.Context, update AcceptanceUpdate) error {
	return g.client.Do(ctx, http.MethodPut, "/order/admin/acceptance", nil, update, nil)
}

func (g *apiGateway) Payments(ctx context.Context, id string) ([]Payment, error) {
	var ledger []Payment
	err := g.client.Do(ctx, http.MethodGet, "/order/admin/"+id+"/payment", nil, nil, &ledger)
	return ledger, err
}

func (g *apiGateway) AddPayment(ctx context.Context, id string, input PaymentInput) error {
	return g.client.Do(ctx, http.MethodPut, "/order/admin/"+id+"/payment", nil, input, nil)
}

var _ Gateway = (*apiGateway)(nil)
