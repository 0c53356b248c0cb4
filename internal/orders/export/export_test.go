package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprixetechnologies/cly-admin/internal/orders"
)

func sampleOrder() orders.Order {
	return orders.Order{
		ID:            "ord-1",
		Number:        "CLY-1001",
		Status:        orders.StatusAccepted,
		PaymentStatus: orders.PaymentPartiallyPaid,
		Amount:        700,
		CustomerName:  "Anita Desai",
		CustomerPhone: "+91 98000 00000",
		AddressLine:   "14 MG Road",
		City:          "Pune",
		State:         "Maharashtra",
		Pincode:       "411001",
		Items: []orders.Item{
			{ID: "item-1", Name: "Silk Dupatta", UnitPrice: 100, Requested: 3, Accepted: 2, Acceptance: orders.AcceptancePartial, Note: "one unit damaged"},
			{ID: "item-2", Name: "Cotton Kurta", UnitPrice: 200, Requested: 2, Acceptance: orders.AcceptancePending},
		},
	}
}

func samplePayments() []orders.Payment {
	return []orders.Payment{
		{ID: "pay-1", Amount: 300, PaidAt: time.Date(2026, 8, 12, 11, 30, 0, 0, time.UTC), Admin: "Priya", Note: "advance"},
	}
}

func TestBuildOrderWorkbookSheets(t *testing.T) {
	order := sampleOrder()
	payments := samplePayments()
	rec := orders.Reconcile(order, payments)

	book, err := BuildOrderWorkbook(order, payments, rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })

	assert.ElementsMatch(t, []string{"Order", "Items", "Payments"}, book.GetSheetList())

	number, err := book.GetCellValue("Order", "B1")
	require.NoError(t, err)
	assert.Equal(t, "CLY-1001", number)

	paid, err := book.GetCellValue("Order", "B11")
	require.NoError(t, err)
	assert.Equal(t, "300", paid)

	firstItem, err := book.GetCellValue("Items", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Silk Dupatta", firstItem)

	acceptance, err := book.GetCellValue("Items", "E2")
	require.NoError(t, err)
	assert.Equal(t, "Partial", acceptance)

	recordedBy, err := book.GetCellValue("Payments", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Priya", recordedBy)
}

type stubPDFClient struct {
	html string
	err  error
}

func (c *stubPDFClient) RenderHTML(_ context.Context, html string) ([]byte, error) {
	c.html = html
	if c.err != nil {
		return nil, c.err
	}
	return []byte("%PDF-1.7 stub"), nil
}

func TestInvoiceRendererFillsTemplate(t *testing.T) {
	pdf := &stubPDFClient{}
	renderer, err := NewInvoiceRenderer(pdf)
	require.NoError(t, err)

	order := sampleOrder()
	payments := samplePayments()
	data := InvoiceData{
		Order:          order,
		Payments:       payments,
		Reconciliation: orders.Reconcile(order, payments),
		GeneratedAt:    time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}

	out, err := renderer.Render(context.Background(), data)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	assert.Contains(t, pdf.html, "CLY-1001")
	assert.Contains(t, pdf.html, "Anita Desai")
	assert.Contains(t, pdf.html, "Partially Paid")
	// Accepted line bills 2 units, pending line bills the requested 2.
	assert.Contains(t, pdf.html, "200.00")
	assert.Contains(t, pdf.html, "400.00")
	assert.Contains(t, pdf.html, "31 Aug 2026")
}

func TestInvoiceRendererPropagatesPDFFailure(t *testing.T) {
	wantErr := errors.New("gotenberg unreachable")
	renderer, err := NewInvoiceRenderer(&stubPDFClient{err: wantErr})
	require.NoError(t, err)

	order := sampleOrder()
	_, err = renderer.Render(context.Background(), InvoiceData{Order: order, Reconciliation: orders.Reconcile(order, nil)})
	require.ErrorIs(t, err, wantErr)
}

func TestInvoiceRendererRequiresClient(t *testing.T) {
	_, err := NewInvoiceRenderer(nil)
	require.Error(t, err)
}
