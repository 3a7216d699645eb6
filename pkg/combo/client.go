package combo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/navmenu/pkg/cascade"
)

// DefaultTimeout bounds a single catalog request.
const DefaultTimeout = 10 * time.Second

// ErrUnexpectedStatus is returned when the backend answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("combo: unexpected status")

// Item is one catalog entry as sent by the backend.
type Item struct {
	ID          int64  `json:"Id"`
	Descripcion string `json:"Descripcion"`
	Text        string `json:"text"`
}

// Label returns the description, falling back to text.
func (i Item) Label() string {
	if i.Descripcion != "" {
		return i.Descripcion
	}
	return i.Text
}

// Client reads catalogs from {base}/combos.
type Client struct {
	base   string
	client *http.Client
	token  func(ctx context.Context) string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.client = c }
}

// WithToken sets the function supplying the bearer token.
func WithToken(fn func(ctx context.Context) string) ClientOption {
	return func(cl *Client) { cl.token = fn }
}

// NewClient creates a catalog client for the API rooted at base.
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimRight(base, "/") + "/combos",
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Combo returns the entries of catalog t.
func (c *Client) Combo(ctx context.Context, t Type) ([]Item, error) {
	return c.get(ctx, "/"+strconv.Itoa(int(t)), t.String())
}

// ModulosByAplicacion returns the active modules of one application.
func (c *Client) ModulosByAplicacion(ctx context.Context, aplicacion int64) ([]Item, error) {
	return c.get(ctx, "/modulos/"+strconv.FormatInt(aplicacion, 10), "modulos")
}

// AllModulos returns every module, active or not. Read-only views use it to label
// modules that can no longer be selected.
func (c *Client) AllModulos(ctx context.Context) ([]Item, error) {
	return c.get(ctx, "/modulos/all", "modulos")
}

// Options returns catalog t as cascade options, for a root level.
func (c *Client) Options(ctx context.Context, t Type) ([]cascade.Item, error) {
	items, err := c.Combo(ctx, t)
	if err != nil {
		return nil, err
	}
	return toOptions(items), nil
}

// ModulosFetcher adapts the modules-by-application endpoint into a cascade fetch
// keyed by application id.
func (c *Client) ModulosFetcher() cascade.FetchFunc {
	return func(ctx context.Context, aplicacion int64) ([]cascade.Item, error) {
		items, err := c.ModulosByAplicacion(ctx, aplicacion)
		if err != nil {
			return nil, err
		}
		return toOptions(items), nil
	}
}

func (c *Client) get(ctx context.Context, path, name string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requesting %s: %w %d", name, ErrUnexpectedStatus, resp.StatusCode)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return items, nil
}

func toOptions(items []Item) []cascade.Item {
	out := make([]cascade.Item, 0, len(items))
	for _, it := range items {
		out = append(out, cascade.Item{ID: it.ID, Label: it.Label()})
	}
	return out
}
