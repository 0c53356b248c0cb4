// Package upstream implements the shared client for the seller backend API.
// Every business entity the dashboard shows lives behind that API; the client
// attaches the session's bearer token, normalises error responses and keeps
// token refresh coordinated so concurrent requests never race the exchange.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
)

const maxErrorBody = 64 << 10

// TokenPair is the credential pair issued by the seller API.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client talks to the seller API on behalf of the signed-in admin.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	sessions   *shared.SessionManager

	refreshGroup singleflight.Group
}

// NewClient constructs a Client. The session manager is optional; when set,
// refreshed token pairs are persisted immediately so parallel requests on the
// same session pick them up.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, sessions *shared.SessionManager) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		sessions:   sessions,
	}
}

// Do performs an authenticated request against the seller API. The bearer
// token comes from the session stored in ctx. A 401 triggers one coordinated
// refresh followed by a single retry.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	sess := shared.SessionFromContext(ctx)
	status, data, err := c.roundTrip(ctx, method, path, query, payload, sess.AccessToken())
	if err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	}

	if status == http.StatusUnauthorized && sess.RefreshToken() != "" {
		if rerr := c.RefreshSession(ctx, sess); rerr != nil {
			return rerr
		}
		status, data, err = c.roundTrip(ctx, method, path, query, payload, sess.AccessToken())
		if err != nil {
			return fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
		}
	}

	if status >= 400 {
		return mapStatus(status, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// DoAnonymous performs a request without a bearer token. Used for login and
// the refresh exchange itself.
func (c *Client) DoAnonymous(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	status, data, err := c.roundTrip(ctx, method, path, nil, payload, "")
	if err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	}
	if status >= 400 {
		return mapStatus(status, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// RefreshSession exchanges the session's refresh token for a new pair.
// Concurrent callers on the same session share a single upstream exchange.
func (c *Client) RefreshSession(ctx context.Context, sess *shared.Session) error {
	if sess == nil || sess.RefreshToken() == "" {
		return httpx.ErrUnauthorized
	}
	refreshToken := sess.RefreshToken()
	_, err, coalesced := c.refreshGroup.Do(sess.ID, func() (any, error) {
		var pair TokenPair
		err := c.DoAnonymous(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refreshToken}, &pair)
		if err != nil {
			return nil, err
		}
		if pair.AccessToken == "" {
			return nil, httpx.ErrUnauthorized
		}
		// Only the exchange owner writes the session. Coalesced callers
		// block until Do returns, so they read the new pair afterwards
		// without racing this write.
		sess.SetTokens(pair.AccessToken, pair.RefreshToken)
		if c.sessions != nil {
			if serr := c.sessions.Save(ctx, sess); serr != nil && c.logger != nil {
				c.logger.Warn("persist refreshed tokens", slog.Any("error", serr))
			}
		}
		return pair, nil
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("token refresh failed", slog.Any("error", err))
		}
		return fmt.Errorf("%w: token refresh rejected", httpx.ErrUnauthorized)
	}
	if coalesced && c.logger != nil {
		c.logger.Debug("token refresh coalesced", slog.String("session", sess.ID))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (int, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func mapStatus(status int, body []byte) error {
	msg := serverMessage(body)
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", httpx.ErrValidation, msg)
	case http.StatusUnauthorized:
		return httpx.ErrUnauthorized
	case http.StatusForbidden:
		return httpx.ErrForbidden
	case http.StatusNotFound:
		return httpx.ErrNotFound
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, msg)
	default:
		return fmt.Errorf("%w: status %d", httpx.ErrUnavailable, status)
	}
}

func serverMessage(body []byte) string {
	if len(body) == 0 {
		return "request rejected"
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var payload apiError
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "request rejected"
}
