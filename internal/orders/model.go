package orders

import "time"

// Status is the admin-set order state. It is effectively terminal once it
// leaves pending; only a forced change may move it again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether the value is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus mirrors the seller API's payment state enum.
type PaymentStatus string

const (
	PaymentNotPaid       PaymentStatus = "not_paid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

// Label returns the display text for the payment state.
func (p PaymentStatus) Label() string {
	switch p {
	case PaymentPaid:
		return "Fully Paid"
	case PaymentPartiallyPaid:
		return "Partially Paid"
	default:
		return "Not Paid"
	}
}

// AcceptanceStatus is the per-line acceptance state computed by the seller API.
type AcceptanceStatus string

const (
	AcceptancePending  AcceptanceStatus = "pending"
	AcceptancePartial  AcceptanceStatus = "partial"
	AcceptanceFull     AcceptanceStatus = "full"
	AcceptanceRejected AcceptanceStatus = "rejected"
)

// Label returns the display text for the acceptance state.
func (a AcceptanceStatus) Label() string {
	switch a {
	case AcceptancePartial:
		return "Partial"
	case AcceptanceFull:
		return "Full"
	case AcceptanceRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

// Order is the order header with its line items as returned by the seller
// API. Orders are created upstream by the storefront; the dashboard only
// reads them and updates status, acceptance and payment fields.
type Order struct {
	ID            string        `json:"id"`
	Number        string        `json:"number"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Amount        float64       `json:"amount"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	AddressLine   string        `json:"address_line"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	Pincode       string        `json:"pincode"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []Item        `json:"items"`
}

// Item is one order line.
type Item struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"product_id"`
	Name       string           `json:"name"`
	ImageURL   string           `json:"image_url"`
	UnitPrice  float64          `json:"unit_price"`
	Requested  int              `json:"requested_units"`
	Accepted   int              `json:"accepted_units"`
	Acceptance AcceptanceStatus `json:"acceptance_status"`
	Note       string           `json:"note"`
}

// Payment is one admin-entered ledger row against an order.
type Payment struct {
	ID      string    `json:"id"`
	Amount  float64   `json:"amount"`
	PaidAt  time.Time `json:"paid_at"`
	AdminID string    `json:"admin_id"`
	Admin   string    `json:"admin_name"`
	Note    string    `json:"note"`
}

// Summary is the list-page projection of an order.
type Summary struct {
	ID            string        `json:"id"`
	Number        string        `json:"number"`
	CustomerName  string        `json:"customer_name"`
	Amount        float64       `json:"amount"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Reconciliation is derived from the ledger on every render and never
// persisted. The server-sent payment_status stays authoritative for the
// order badge; Mismatch flags disagreement between the two.
type Reconciliation struct {
	TotalPaid float64
	Remaining float64
	Derived   PaymentStatus
	Mismatch  bool
}

// Reconcile sums the ledger against the order total.
func Reconcile(order Order, payments []Payment) Reconciliation {
	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}
	remaining := order.Amount - paid
	if remaining < 0 {
		remaining = 0
	}
	derived := PaymentNotPaid
	switch {
	case paid <= 0:
		derived = PaymentNotPaid
	case paid >= order.Amount:
		derived = PaymentPaid
	default:
		derived = PaymentPartiallyPaid
	}
	return Reconciliation{
		TotalPaid: paid,
		Remaining: remaining,
		Derived:   derived,
		Mismatch:  derived != order.PaymentStatus,
	}
}
