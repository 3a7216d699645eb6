package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single menu request.
const DefaultTimeout = 10 * time.Second

// TokenFunc returns the bearer token of the current session, empty for none.
type TokenFunc func(ctx context.Context) string

// HTTPSource fetches the menu from the backend REST API (GET {base}/menu).
type HTTPSource struct {
	base   string
	client *http.Client
	token  TokenFunc
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithToken sets the function supplying the bearer token.
func WithToken(fn TokenFunc) HTTPSourceOption {
	return func(s *HTTPSource) { s.token = fn }
}

// NewHTTPSource creates a menu source for the API rooted at base.
func NewHTTPSource(base string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type menuResponse struct {
	Success bool     `json:"success"`
	Data    []Record `json:"data"`
	Message string   `json:"message,omitempty"`
}

// FetchMenu implements Source. The backend also derives the profile from the token;
// the role is sent as the perfil query parameter.
func (s *HTTPSource) FetchMenu(ctx context.Context, role string) ([]Record, error) {
	u := s.base + "/menu"
	if role != "" {
		u += "?" + url.Values{"perfil": {role}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building menu request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != nil {
		if tok := s.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requesting menu: unexpected status %d", resp.StatusCode)
	}

	var body menuResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding menu: %w", err)
	}
	if !body.Success {
		msg := body.Message
		if msg == "" {
			msg = "unsuccessful response"
		}
		return nil, fmt.Errorf("menu: %s", msg)
	}
	return body.Data, nil
}
