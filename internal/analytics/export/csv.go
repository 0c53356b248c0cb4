// Package export serialises analytics data for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/weprixetechnologies/cly-admin/internal/analytics"
)

// WriteDashboardCSV serialises the headline metrics to CSV.
func WriteDashboardCSV(w io.Writer, metrics analytics.DashboardMetrics) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Orders Today", strconv.Itoa(metrics.OrdersToday)},
		{"Orders Pending", strconv.Itoa(metrics.OrdersPending)},
		{"Revenue Today", formatFloat(metrics.RevenueToday)},
		{"Revenue This Month", formatFloat(metrics.RevenueMonth)},
		{"Visitors Today", strconv.Itoa(metrics.VisitorsToday)},
		{"Visitors This Month", strconv.Itoa(metrics.VisitorsMonth)},
		{"Active Products", strconv.Itoa(metrics.ProductsActive)},
		{"Out of Stock", strconv.Itoa(metrics.ProductsOut)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteVisitorsCSV emits the daily traffic trend as CSV.
func WriteVisitorsCSV(w io.Writer, stats []analytics.VisitorStat) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Date", "Visitors", "Unique", "Orders"}); err != nil {
		return err
	}
	for _, stat := range stats {
		if err := writer.Write([]string{
			stat.Date,
			strconv.Itoa(stat.Visitors),
			strconv.Itoa(stat.Unique),
			strconv.Itoa(stat.Orders),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
