package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/weprixetechnologies/cly-admin/internal/orders"
)

// BuildOrderWorkbook assembles a three-sheet workbook (header, items,
// payments) from an already-loaded order.
func BuildOrderWorkbook(order orders.Order, payments []orders.Payment, rec orders.Reconciliation) (*excelize.File, error) {
	book := excelize.NewFile()
	const headerSheet = "Order"
	if err := book.SetSheetName("Sheet1", headerSheet); err != nil {
		return nil, err
	}

	headerRows := [][]any{
		{"Order Number", order.Number},
		{"Status", string(order.Status)},
		{"Payment Status", order.PaymentStatus.Label()},
		{"Customer", order.CustomerName},
		{"Phone", order.CustomerPhone},
		{"Address", order.AddressLine},
		{"City", order.City},
		{"State", order.State},
		{"Pincode", order.Pincode},
		{"Order Total", order.Amount},
		{"Total Paid", rec.TotalPaid},
		{"Remaining", rec.Remaining},
	}
	for i, row := range headerRows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := book.SetSheetRow(headerSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const itemSheet = "Items"
	if _, err := book.NewSheet(itemSheet); err != nil {
		return nil, err
	}
	itemHeader := []any{"Product", "Unit Price", "Requested", "Accepted", "Acceptance", "Note"}
	if err := book.SetSheetRow(itemSheet, "A1", &itemHeader); err != nil {
		return nil, err
	}
	for i, item := range order.Items {
		row := []any{item.Name, item.UnitPrice, item.Requested, item.Accepted, item.Acceptance.Label(), item.Note}
		if err := book.SetSheetRow(itemSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	const paymentSheet = "Payments"
	if _, err := book.NewSheet(paymentSheet); err != nil {
		return nil, err
	}
	paymentHeader := []any{"Paid At", "Amount", "Recorded By", "Note"}
	if err := book.SetSheetRow(paymentSheet, "A1", &paymentHeader); err != nil {
		return nil, err
	}
	for i, p := range payments {
		row := []any{p.PaidAt.Format("02 Jan 2006 15:04"), p.Amount, p.Admin, p.Note}
		if err := book.SetSheetRow(paymentSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	return book, nil
}
