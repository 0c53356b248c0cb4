// Package analytics surfaces the storefront's traffic and sales metrics.
// The numbers come from the seller API; this package only caches and shapes
// them for the dashboard and CSV downloads.
package analytics

// DashboardMetrics is the headline card row on the home page.
type DashboardMetrics struct {
	OrdersToday    int     `json:"orders_today"`
	OrdersPending  int     `json:"orders_pending"`
	RevenueToday   float64 `json:"revenue_today"`
	RevenueMonth   float64 `json:"revenue_month"`
	VisitorsToday  int     `json:"visitors_today"`
	VisitorsMonth  int     `json:"visitors_month"`
	ProductsActive int     `json:"products_active"`
	ProductsOut    int     `json:"products_out_of_stock"`
}

// VisitorStat is one day of traffic in the visitors trend.
type VisitorStat struct {
	Date     string `json:"date"`
	Visitors int    `json:"visitors"`
	Unique   int    `json:"unique_visitors"`
	Orders   int    `json:"orders"`
}
