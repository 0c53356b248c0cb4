package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
)

type stubGateway struct {
	order         Order
	payments      []Payment
	statusCalls   []Status
	acceptances   []AcceptanceUpdate
	getCalls      int
	addPaymentErr error
}

func (g *stubGateway) List(_ context.Context, _ shared.ListFilters) (upstream.Page[Summary], error) {
	return upstream.Page[Summary]{}, nil
}

func (g *stubGateway) Get(_ context.Context, _ string) (Order, error) {
	g.getCalls++
	return g.order, nil
}

func (g *stubGateway) SetStatus(_ context.Context, _ string, status Status) error {
	g.statusCalls = append(g.statusCalls, status)
	g.order.Status = status
	return nil
}

func (g *stubGateway) SetAcceptance(_ context.Context, update AcceptanceUpdate) error {
	g.acceptances = append(g.acceptances, update)
	return nil
}

func (g *stubGateway) Payments(_ context.Context, _ string) ([]Payment, error) {
	return g.payments, nil
}

func (g *stubGateway) AddPayment(_ context.Context, _ string, input PaymentInput) error {
	if g.addPaymentErr != nil {
		err := g.addPaymentErr
		g.addPaymentErr = nil
		return err
	}
	g.payments = append(g.payments, Payment{Amount: input.Amount, Note: input.Note, AdminID: input.AdminID})
	return nil
}

func testOrder() Order {
	return Order{
		ID:            "ord-1",
		Number:        "CLY-1001",
		Status:        StatusPending,
		PaymentStatus: PaymentNotPaid,
		Amount:        500,
		Items: []Item{
			{ID: "item-1", Name: "Silk Dupatta", UnitPrice: 100, Requested: 3},
			{ID: "item-2", Name: "Cotton Kurta", UnitPrice: 200, Requested: 1},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTransitionFromPending(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	view, err := svc.Transition(context.Background(), "ord-1", StatusAccepted, false)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusAccepted}, gateway.statusCalls)
	assert.Equal(t, StatusAccepted, view.Order.Status)
}

func TestTransitionBlockedOnceDecided(t *testing.T) {
	order := testOrder()
	order.Status = StatusAccepted
	gateway := &stubGateway{order: order}
	svc := NewService(gateway, nil, discardLogger())

	_, err := svc.Transition(context.Background(), "ord-1", StatusRejected, false)
	require.ErrorIs(t, err, ErrStatusFinal)
	assert.Empty(t, gateway.statusCalls, "no upstream call for a blocked transition")
}

func TestTransitionForceOverridesLock(t *testing.T) {
	order := testOrder()
	order.Status = StatusAccepted
	gateway := &stubGateway{order: order}
	svc := NewService(gateway, nil, discardLogger())

	view, err := svc.Transition(context.Background(), "ord-1", StatusRejected, true)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusRejected}, gateway.statusCalls)
	assert.Equal(t, StatusRejected, view.Order.Status)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	_, err := svc.Transition(context.Background(), "ord-1", Status("shipped"), false)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAcceptBoundsUnits(t *testing.T) {
	for _, accepted := range []int{-1, 4} {
		gateway := &stubGateway{order: testOrder()}
		svc := NewService(gateway, nil, discardLogger())

		_, err := svc.Accept(context.Background(), "ord-1", "item-1", accepted, "")
		require.ErrorIs(t, err, httpx.ErrValidation, "accepted=%d", accepted)
		assert.Empty(t, gateway.acceptances)
	}
}

func TestAcceptSubmitsWithinBounds(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	_, err := svc.Accept(context.Background(), "ord-1", "item-1", 2, "one unit damaged")
	require.NoError(t, err)
	require.Len(t, gateway.acceptances, 1)
	assert.Equal(t, AcceptanceUpdate{OrderID: "ord-1", ItemID: "item-1", Accepted: 2, Note: "one unit damaged"}, gateway.acceptances[0])
}

func TestAcceptFullUsesRequestedQuantity(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	_, err := svc.AcceptFull(context.Background(), "ord-1", "item-1")
	require.NoError(t, err)
	require.Len(t, gateway.acceptances, 1)
	assert.Equal(t, 3, gateway.acceptances[0].Accepted)
	assert.Equal(t, FullAcceptanceNote, gateway.acceptances[0].Note)
}

func TestAcceptUnknownItem(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	_, err := svc.Accept(context.Background(), "ord-1", "item-404", 1, "")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRecordPaymentCapsAtOrderTotal(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	_, err := svc.RecordPayment(context.Background(), "ord-1", 500.01, "", "admin-1")
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, gateway.payments)

	view, err := svc.RecordPayment(context.Background(), "ord-1", 500, "full settlement", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, view.Reconciliation.TotalPaid)
	assert.Equal(t, PaymentPaid, view.Reconciliation.Derived)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, nil, discardLogger())

	for _, amount := range []float64{0, -10} {
		_, err := svc.RecordPayment(context.Background(), "ord-1", amount, "", "admin-1")
		require.ErrorIs(t, err, httpx.ErrValidation, "amount=%v", amount)
	}
}

func TestRecordPaymentBlocksDoubleSubmit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	guard := NewSubmitGuard(rdb, time.Minute)
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, guard, discardLogger())

	held, err := guard.Acquire(context.Background(), "payment:ord-1")
	require.NoError(t, err)
	require.True(t, held)

	_, err = svc.RecordPayment(context.Background(), "ord-1", 100, "", "admin-1")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Empty(t, gateway.payments)

	guard.Release(context.Background(), "payment:ord-1")
	view, err := svc.RecordPayment(context.Background(), "ord-1", 100, "", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.Reconciliation.TotalPaid)
}

func TestRecordPaymentHoldsGuardForFullWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	guard := NewSubmitGuard(rdb, time.Minute)
	gateway := &stubGateway{order: testOrder()}
	svc := NewService(gateway, guard, discardLogger())

	_, err := svc.RecordPayment(context.Background(), "ord-1", 100, "", "admin-1")
	require.NoError(t, err)

	// A second submit right after the first response must still be refused.
	_, err = svc.RecordPayment(context.Background(), "ord-1", 100, "", "admin-1")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Len(t, gateway.payments, 1)

	mr.FastForward(2 * time.Minute)
	view, err := svc.RecordPayment(context.Background(), "ord-1", 100, "", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 200.0, view.Reconciliation.TotalPaid)
}

func TestRecordPaymentReleasesGuardOnUpstreamFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	guard := NewSubmitGuard(rdb, time.Minute)
	gateway := &stubGateway{order: testOrder(), addPaymentErr: httpx.ErrUnavailable}
	svc := NewService(gateway, guard, discardLogger())

	_, err := svc.RecordPayment(context.Background(), "ord-1", 100, "", "admin-1")
	require.ErrorIs(t, err, httpx.ErrUnavailable)

	// Nothing posted, so the retry goes through immediately.
	view, err := svc.RecordPayment(context.Background(), "ord-1", 100, "retry", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.Reconciliation.TotalPaid)
}

func TestGetDerivesReconciliation(t *testing.T) {
	order := testOrder()
	order.PaymentStatus = PaymentPartiallyPaid
	gateway := &stubGateway{
		order:    order,
		payments: []Payment{{Amount: 200}, {Amount: 100}},
	}
	svc := NewService(gateway, nil, discardLogger())

	view, err := svc.Get(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 300.0, view.Reconciliation.TotalPaid)
	assert.Equal(t, 200.0, view.Reconciliation.Remaining)
	assert.Equal(t, PaymentPartiallyPaid, view.Reconciliation.Derived)
	assert.False(t, view.Reconciliation.Mismatch)
}

func TestReconcile(t *testing.T) {
	order := Order{Amount: 400, PaymentStatus: PaymentNotPaid}

	cases := []struct {
		name      string
		payments  []Payment
		derived   PaymentStatus
		remaining float64
		mismatch  bool
	}{
		{name: "empty ledger", derived: PaymentNotPaid, remaining: 400},
		{name: "partial", payments: []Payment{{Amount: 150}}, derived: PaymentPartiallyPaid, remaining: 250, mismatch: true},
		{name: "settled", payments: []Payment{{Amount: 400}}, derived: PaymentPaid, mismatch: true},
		{name: "overpaid clamps remaining", payments: []Payment{{Amount: 300}, {Amount: 300}}, derived: PaymentPaid, mismatch: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Reconcile(order, tc.payments)
			assert.Equal(t, tc.derived, rec.Derived)
			assert.Equal(t, tc.remaining, rec.Remaining)
			assert.Equal(t, tc.mismatch, rec.Mismatch)
		})
	}
}
