// Package httpapi implements the identity gateway over HTTPS/JSON.
package httpapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ident-cli/internal/gateway"
	"github.com/and161185/ident-cli/internal/model"
)

// Config collects transport settings for the gateway client.
type Config struct {
	BaseURL  string        // e.g. https://id.example.com
	Timeout  time.Duration // per-request timeout, 0 = no client timeout
	CACert   string        // optional CA bundle (PEM)
	Insecure bool          // skip cert verify (dev)
}

// Client talks to the identity service. All credential verification happens
// on the service side; the client only moves JSON and normalizes failures
// into *gateway.Error.
type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger
}

var _ gateway.Gateway = (*Client)(nil)

// New builds a gateway client. A nil logger disables request logging.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("httpapi: empty base URL")
	}
	if log == nil {
		log = zap.NewNop()
	}
	tlsCfg, err := loadTLS(cfg.CACert, cfg.Insecure)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		hc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
		log: log,
	}, nil
}

// loadTLS builds the client TLS config from an optional CA file.
func loadTLS(caPath string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // dev-only flag
	}
	if caPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("httpapi: bad CA cert")
	}
	return &tls.Config{RootCAs: pool}, nil
}

// IssueTokens implements gateway.Gateway.
func (c *Client) IssueTokens(ctx context.Context, form model.LoginForm) (model.TokenPair, error) {
	var pair model.TokenPair
	if err := c.post(ctx, "/auth/token", form, &pair); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// RefreshTokens implements gateway.Gateway.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}
	var pair model.TokenPair
	if err := c.post(ctx, "/auth/token/refresh", body, &pair); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

// CreateAccount implements gateway.Gateway.
func (c *Client) CreateAccount(ctx context.Context, form model.SignupForm) (model.Profile, error) {
	var p model.Profile
	if err := c.post(ctx, "/auth/signup", form, &p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// RequestPasswordReset implements gateway.Gateway.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.post(ctx, "/auth/password/retrieve", body, nil)
}

// ConfirmPasswordReset implements gateway.Gateway. The ticket is passed
// through unmodified; the service binds it to the original reset request.
func (c *Client) ConfirmPasswordReset(ctx context.Context, form model.ChangeForm, ticket string) error {
	return c.post(ctx, "/auth/password/change/"+ticket, form, nil)
}

// post sends a JSON POST and decodes the response into out (out may be nil
// for void operations). Non-2xx responses become *gateway.Error.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("httpapi: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if id, err := uuid.NewV4(); err == nil {
		req.Header.Set("X-Request-Id", id.String())
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn("http",
			zap.String("path", path),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	// metadata only, never payloads
	c.log.Info("http",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpapi: decode response: %w", err)
	}
	return nil
}

// decodeError maps a rejection body to *gateway.Error. A body without a
// detail field violates the gateway contract; the fallback detail keeps the
// failure visible.
func decodeError(resp *http.Response) error {
	var body struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)
	if body.Detail == "" {
		body.Detail = gateway.FallbackDetail
	}
	return &gateway.Error{Status: resp.StatusCode, Detail: body.Detail}
}
