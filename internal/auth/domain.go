package auth

// Admin identifies the signed-in administrator as reported by the seller API.
type Admin struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials is the payload returned by the admin login endpoint.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Admin        Admin  `json:"admin"`
}
