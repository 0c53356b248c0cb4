package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
)

// Gateway performs credential operations against the seller API.
type Gateway interface {
	Login(ctx context.Context, email, password string) (Credentials, error)
}

type upstreamGateway struct {
	client *upstream.Client
}

// NewGateway builds the seller API backed Gateway.
func NewGateway(client *upstream.Client) Gateway {
	return &upstreamGateway{client: client}
}

func (g *upstreamGateway) Login(ctx context.Context, email, password string) (Credentials, error) {
	var creds Credentials
	body := map[string]string{"email": email, "password": password}
	err := g.client.DoAnonymous(ctx, http.MethodPost, "/auth/login/admin", body, &creds)
	return creds, err
}

// Service wraps authentication business rules. Credential verification is
// fully delegated to the seller API; the dashboard only keeps the issued
// token pair in the admin's session.
type Service struct {
	gateway Gateway
}

// NewService constructs a new Service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Authenticate exchanges email/password for a token pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Credentials, error) {
	creds, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, httpx.ErrUnauthorized) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) {
			return Credentials{}, shared.ErrInvalidCredentials
		}
		return Credentials{}, err
	}
	if creds.AccessToken == "" {
		return Credentials{}, shared.ErrInvalidCredentials
	}
	return creds, nil
}
