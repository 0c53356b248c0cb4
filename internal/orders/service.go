package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
)

// FullAcceptanceNote is submitted by the one-click full-accept shortcut.
const FullAcceptanceNote = "Full quantity accepted"

var (
	// ErrStatusFinal is returned when a transition is attempted on an order
	// that already left pending and no force override was given.
	ErrStatusFinal = errors.New("status already updated")
)

// View bundles everything the order detail page shows: header, items,
// ledger and the locally derived reconciliation.
type View struct {
	Order          Order
	Payments       []Payment
	Reconciliation Reconciliation
}

// Service implements the order lifecycle workflows. Every mutation goes to
// the seller API and is followed by a full re-fetch, so the page always
// converges on server state instead of patching locally.
type Service struct {
	gateway Gateway
	guard   *SubmitGuard
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(gateway Gateway, guard *SubmitGuard, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, guard: guard, logger: logger}
}

// List returns one page of order summaries.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) (upstream.Page[Summary], error) {
	return s.gateway.List(ctx, filters)
}

// Get loads the order, its ledger and the derived reconciliation.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	order, err := s.gateway.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	payments, err := s.gateway.Payments(ctx, id)
	if err != nil {
		return View{}, err
	}
	rec := Reconcile(order, payments)
	if rec.Mismatch && s.logger != nil {
		s.logger.Warn("payment status mismatch",
			slog.String("order", order.ID),
			slog.String("server", string(order.PaymentStatus)),
			slog.String("derived", string(rec.Derived)))
	}
	return View{Order: order, Payments: payments, Reconciliation: rec}, nil
}

// Transition moves the order to the next status. Without force, only orders
// still pending may move; afterwards any transition requires the explicit
// override. The seller API remains the final arbiter either way.
func (s *Service) Transition(ctx context.Context, id string, next Status, force bool) (View, error) {
	if !next.Valid() {
		return View{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, next)
	}
	current, err := s.gateway.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if !force && current.Status != StatusPending && next != current.Status {
		return View{}, ErrStatusFinal
	}
	if err := s.gateway.SetStatus(ctx, id, next); err != nil {
		return View{}, err
	}
	return s.Get(ctx, id)
}

// Accept records a partial acceptance for one line item.
func (s *Service) Accept(ctx context.Context, orderID, itemID string, accepted int, note string) (View, error) {
	order, err := s.gateway.Get(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	item, ok := findItem(order, itemID)
	if !ok {
		return View{}, fmt.Errorf("%w: order item", httpx.ErrNotFound)
	}
	if accepted < 0 || accepted > item.Requested {
		return View{}, fmt.Errorf("%w: accepted units must be between 0 and %d", httpx.ErrValidation, item.Requested)
	}
	update := AcceptanceUpdate{OrderID: orderID, ItemID: itemID, Accepted: accepted, Note: note}
	if err := s.gateway.SetAcceptance(ctx, update); err != nil {
		return View{}, err
	}
	return s.Get(ctx, orderID)
}

// AcceptFull is the shortcut submitting the full requested quantity.
func (s *Service) AcceptFull(ctx context.Context, orderID, itemID string) (View, error) {
	order, err := s.gateway.Get(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	item, ok := findItem(order, itemID)
	if !ok {
		return View{}, fmt.Errorf("%w: order item", httpx.ErrNotFound)
	}
	update := AcceptanceUpdate{OrderID: orderID, ItemID: itemID, Accepted: item.Requested, Note: FullAcceptanceNote}
	if err := s.gateway.SetAcceptance(ctx, update); err != nil {
		return View{}, err
	}
	return s.Get(ctx, orderID)
}

// RecordPayment validates and posts one ledger entry, then re-fetches the
// order and its ledger.
//
// The cap is checked against the full order total, not the remaining
// balance, matching the seller API's current behaviour. Tightening it to
// the balance needs product sign-off first.
func (s *Service) RecordPayment(ctx context.Context, orderID string, amount float64, note, adminID string) (View, error) {
	order, err := s.gateway.Get(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	if amount <= 0 {
		return View{}, fmt.Errorf("%w: payment amount must be positive", httpx.ErrValidation)
	}
	if amount > order.Amount {
		return View{}, fmt.Errorf("%w: payment exceeds the order total", httpx.ErrValidation)
	}

	ok, err := s.guard.Acquire(ctx, "payment:"+orderID)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, fmt.Errorf("%w: a payment for this order was just submitted", httpx.ErrDuplicate)
	}

	input := PaymentInput{Amount: amount, Note: note, AdminID: adminID}
	if err := s.gateway.AddPayment(ctx, orderID, input); err != nil {
		// Nothing was posted, so a corrected retry must not be locked out.
		s.guard.Release(ctx, "payment:"+orderID)
		return View{}, err
	}
	// The key stays held for the rest of the window once the entry posted.
	return s.Get(ctx, orderID)
}

func findItem(order Order, itemID string) (Item, bool) {
	for _, item := range order.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}
