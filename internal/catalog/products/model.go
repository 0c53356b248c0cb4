package products

// Product mirrors the seller API's product entity. Images are public URLs
// on the object store; the dashboard never holds the bytes.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	SKU          string   `json:"sku"`
	Price        float64  `json:"price"`
	ComparePrice float64  `json:"compare_price"`
	Stock        int      `json:"stock"`
	CategoryID   string   `json:"category_id"`
	CategoryName string   `json:"category_name"`
	Description  string   `json:"description"`
	Active       bool     `json:"active"`
	Images       []string `json:"images"`
}
