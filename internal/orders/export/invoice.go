// Package export turns loaded order data into downloadable documents.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/weprixetechnologies/cly-admin/internal/orders"
	"github.com/weprixetechnologies/cly-admin/internal/view"
	"github.com/weprixetechnologies/cly-admin/web"
)

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// InvoiceData is everything the invoice template needs. Which fields appear
// where is decided in the template, so layout changes never touch generation
// code.
type InvoiceData struct {
	Order          orders.Order
	Payments       []orders.Payment
	Reconciliation orders.Reconciliation
	GeneratedAt    time.Time
}

// InvoiceRenderer renders the declarative invoice template and converts the
// HTML into PDF bytes.
type InvoiceRenderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewInvoiceRenderer parses the invoice template and wires the PDF client.
func NewInvoiceRenderer(client PDFClient) (*InvoiceRenderer, error) {
	if client == nil {
		return nil, fmt.Errorf("invoice renderer: pdf client required")
	}
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"money": view.Money,
		// Lines still awaiting acceptance bill at the requested quantity.
		"lineTotal": func(item orders.Item) float64 {
			units := item.Accepted
			if item.Acceptance == orders.AcceptancePending {
				units = item.Requested
			}
			return float64(units) * item.UnitPrice
		},
	}
	tpl, err := template.New("invoice.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/invoice.html")
	if err != nil {
		return nil, err
	}
	return &InvoiceRenderer{tpl: tpl, client: client}, nil
}

// Render executes the template and converts the HTML to PDF bytes.
func (r *InvoiceRenderer) Render(ctx context.Context, data InvoiceData) ([]byte, error) {
	if r == nil || r.tpl == nil || r.client == nil {
		return nil, fmt.Errorf("invoice renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, data); err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, buf.String())
}
