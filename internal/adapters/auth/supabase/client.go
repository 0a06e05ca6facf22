package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bovine-monitoring/internal/platform/httpclient"
	sbplatform "bovine-monitoring/internal/platform/supabase"
	"bovine-monitoring/internal/ports/auth"

	"github.com/tidwall/gjson"
)

var (
	ErrNotConfigured = errors.New("gotrue client not configured")
	ErrUpstream      = errors.New("gotrue upstream error")
)

// Client implementa auth.IdentityProvider contra GoTrue (/auth/v1).
type Client struct {
	sb *sbplatform.Client
}

func NewClient(sb *sbplatform.Client) *Client {
	return &Client{sb: sb}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.sb != nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrNotConfigured
	}

	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var raw json.RawMessage
	err := c.sb.HTTP().DoJSON(ctx, http.MethodPost, c.sb.AuthURL("signup"), c.sb.UserHeaders(""), body, &raw)
	if err != nil {
		return auth.Session{}, rejectOrUpstream(err)
	}

	// Con confirmación de email pendiente GoTrue devuelve solo el usuario.
	if !gjson.GetBytes(raw, "access_token").Exists() {
		u, err := parseUser(gjson.ParseBytes(raw))
		if err != nil {
			return auth.Session{}, err
		}
		return auth.Session{TokenType: "bearer", User: u}, nil
	}
	return parseSession(raw)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrNotConfigured
	}

	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var raw json.RawMessage
	err := c.sb.HTTP().DoJSON(ctx, http.MethodPost, c.sb.AuthURL("token?grant_type=password"), c.sb.UserHeaders(""), body, &raw)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
			return auth.Session{}, auth.ErrInvalidCredentials
		}
		return auth.Session{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return parseSession(raw)
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return auth.ErrInvalidToken
	}

	err := c.sb.HTTP().DoJSON(ctx, http.MethodPost, c.sb.AuthURL("logout"), c.sb.UserHeaders(accessToken), nil, nil)
	if err != nil {
		if s := httpclient.StatusOf(err); s == http.StatusUnauthorized || s == http.StatusForbidden {
			return auth.ErrInvalidToken
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// GetUser trae el usuario dueño del token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (auth.User, string, error) {
	if !c.IsConfigured() {
		return auth.User{}, "", ErrNotConfigured
	}

	var raw json.RawMessage
	err := c.sb.HTTP().DoJSON(ctx, http.MethodGet, c.sb.AuthURL("user"), c.sb.UserHeaders(accessToken), nil, &raw)
	if err != nil {
		if s := httpclient.StatusOf(err); s == http.StatusUnauthorized || s == http.StatusForbidden {
			return auth.User{}, "", auth.ErrInvalidToken
		}
		return auth.User{}, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	res := gjson.ParseBytes(raw)
	u, err := parseUser(res)
	if err != nil {
		return auth.User{}, "", err
	}
	return u, res.Get("role").String(), nil
}

func rejectOrUpstream(err error) error {
	var he *httpclient.HTTPError
	if errors.As(err, &he) && he.StatusCode >= 400 && he.StatusCode < 500 {
		return &auth.RejectedError{Reason: he.Message()}
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func parseSession(raw []byte) (auth.Session, error) {
	res := gjson.ParseBytes(raw)

	u, err := parseUser(res.Get("user"))
	if err != nil {
		return auth.Session{}, err
	}

	tokenType := res.Get("token_type").String()
	if tokenType == "" {
		tokenType = "bearer"
	}
	return auth.Session{
		AccessToken:  res.Get("access_token").String(),
		RefreshToken: res.Get("refresh_token").String(),
		TokenType:    strings.ToLower(tokenType),
		ExpiresIn:    int(res.Get("expires_in").Int()),
		User:         u,
	}, nil
}

func parseUser(res gjson.Result) (auth.User, error) {
	id := strings.TrimSpace(res.Get("id").String())
	if id == "" {
		return auth.User{}, fmt.Errorf("%w: response missing user id", ErrUpstream)
	}

	u := auth.User{
		ID:    id,
		Email: strings.TrimSpace(res.Get("email").String()),
	}
	if ts := res.Get("created_at").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			u.CreatedAt = t.UTC()
		}
	}
	return u, nil
}
