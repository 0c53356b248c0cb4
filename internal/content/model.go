// Package content manages the storefront's editorial surfaces: FAQ entries,
// policy documents and the singleton about, contact and head-office pages.
package content

// FAQ is one question and answer pair on the storefront help page.
type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
	Active   bool   `json:"active"`
}

// Policy is a legal document such as returns or shipping terms.
type Policy struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Body  string `json:"body"`
}

// AboutPage is the singleton about-us document.
type AboutPage struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	Image   string `json:"image_url"`
}

// ContactPage is the singleton contact details document.
type ContactPage struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Hours    string `json:"hours"`
}

// HeadOffice is the singleton registered office record printed on invoices.
type HeadOffice struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	GSTIN    string `json:"gstin"`
	MapEmbed string `json:"map_embed"`
}
