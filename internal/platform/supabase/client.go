package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bovine-monitoring/internal/platform/httpclient"
)

var ErrNotConfigured = errors.New("supabase client not configured")

type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string

	Timeout time.Duration
	// HTTP opcional (tests); si es nil se crea uno con Timeout.
	HTTP *httpclient.Client
}

// Client habla con los tres servicios de Supabase: PostgREST (/rest/v1),
// GoTrue (/auth/v1) y Storage (/storage/v1).
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: missing url", ErrNotConfigured)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("supabase: invalid url: %w", err)
	}

	anon := strings.TrimSpace(cfg.AnonKey)
	service := strings.TrimSpace(cfg.ServiceRoleKey)
	if anon == "" && service == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrNotConfigured)
	}
	// Sin service key, las tablas se consultan con la anon key.
	if service == "" {
		service = anon
	}
	if anon == "" {
		anon = service
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = httpclient.New(cfg.Timeout)
	}

	return &Client{
		baseURL:    base,
		anonKey:    anon,
		serviceKey: service,
		http:       hc,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) HTTP() *httpclient.Client { return c.http }

func (c *Client) RestURL(table string, q url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) AuthURL(path string) string {
	return c.baseURL + "/auth/v1/" + strings.TrimLeft(path, "/")
}

func (c *Client) StorageURL(path string) string {
	return c.baseURL + "/storage/v1/" + strings.TrimLeft(path, "/")
}

// ServiceHeaders autentica con la service role key (bypassa RLS;
// la pertenencia se controla en los services).
func (c *Client) ServiceHeaders() map[string]string {
	return map[string]string{
		"apikey":        c.serviceKey,
		"Authorization": "Bearer " + c.serviceKey,
	}
}

// UserHeaders autentica como el usuario dueño del token (o anónimo si token == "").
func (c *Client) UserHeaders(token string) map[string]string {
	bearer := c.anonKey
	if strings.TrimSpace(token) != "" {
		bearer = strings.TrimSpace(token)
	}
	return map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + bearer,
	}
}

// Rest ejecuta una operación PostgREST sobre table.
// Las escrituras piden la representación para poder detectar filas no afectadas.
func (c *Client) Rest(ctx context.Context, method, table string, q url.Values, in, out any) error {
	h := c.ServiceHeaders()
	if method != http.MethodGet {
		h["Prefer"] = "return=representation"
	}
	if err := c.http.DoJSON(ctx, method, c.RestURL(table, q), h, in, out); err != nil {
		return fmt.Errorf("supabase %s %s: %w", method, table, err)
	}
	return nil
}

// Ping verifica que PostgREST responda.
func (c *Client) Ping(ctx context.Context) error {
	return c.http.DoJSON(ctx, http.MethodGet, c.baseURL+"/rest/v1/", c.ServiceHeaders(), nil, nil)
}

// Eq arma un filtro PostgREST "col=eq.value".
func Eq(v string) string { return "eq." + v }
