package sliders

// Variant selects which storefront surface a slider targets. Desktop and
// mobile carry independent image sets behind separate API paths.
type Variant string

const (
	VariantDesktop Variant = "desktop"
	VariantMobile  Variant = "mobile"
)

// Valid reports whether the variant is one the storefront knows.
func (v Variant) Valid() bool {
	return v == VariantDesktop || v == VariantMobile
}

// Slider is one banner in the storefront carousel.
type Slider struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
	Position int    `json:"position"`
	Active   bool   `json:"active"`
}
