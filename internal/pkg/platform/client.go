package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/internal/pkg/env"
)

// Client talks to the commerce platform's admin API. Authorization and API
// endpoints are shop-scoped: every URL is built from the calling storefront's
// domain.
type Client struct {
	APIKey    string
	APISecret string

	// Scheme lets tests point the client at a plain-HTTP test server.
	Scheme string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from PLATFORM_* environment configuration.
func NewClientFromEnv() *Client {
	return &Client{
		APIKey:    strings.TrimSpace(env.GetEnv("PLATFORM_API_KEY", "")),
		APISecret: strings.TrimSpace(env.GetEnv("PLATFORM_API_SECRET", "")),
		Scheme:    strings.TrimSpace(env.GetEnv("PLATFORM_SCHEME", "https")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsAuthenticRequest checks the hmac query parameter the platform appends to
// browser redirects against an HMAC-SHA256 over the remaining parameters.
func (c *Client) IsAuthenticRequest(ctx *fiber.Ctx) bool {
	params := map[string]string{}
	ctx.Context().QueryArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	return VerifyRequestSignature(params, c.APISecret)
}

// IsAuthenticWebhook checks the webhook HMAC header against the raw body.
func (c *Client) IsAuthenticWebhook(signatureHeader string, body []byte) bool {
	return VerifyWebhookSignature(body, signatureHeader, c.APISecret)
}

// AuthorizationURL returns the shop-scoped OAuth consent URL the browser is
// redirected to during the handshake.
func (c *Client) AuthorizationURL(shop string, scopes []string, returnURL string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", errors.New("PLATFORM_API_KEY is not configured")
	}
	domain, err := normalizeShopDomain(shop)
	if err != nil {
		return "", err
	}

	u := &url.URL{
		Scheme: c.scheme(),
		Host:   domain,
		Path:   "/admin/oauth/authorize",
	}
	q := u.Query()
	q.Set("client_id", c.APIKey)
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("redirect_uri", returnURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Authorize exchanges the handshake code for a permanent access token.
func (c *Client) Authorize(ctx context.Context, shop, code string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APISecret) == "" {
		return "", errors.New("PLATFORM_API_KEY/PLATFORM_API_SECRET are not configured")
	}
	if strings.TrimSpace(code) == "" {
		return "", errors.New("oauth code is required")
	}

	payload := map[string]string{
		"client_id":     c.APIKey,
		"client_secret": c.APISecret,
		"code":          strings.TrimSpace(code),
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, shop, "", "/admin/oauth/access_token", payload, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("token exchange returned empty access_token")
	}
	return out.AccessToken, nil
}

// GetShop fetches storefront metadata.
func (c *Client) GetShop(ctx context.Context, shop, token string) (*Shop, error) {
	var out struct {
		Shop Shop `json:"shop"`
	}
	if err := c.doJSON(ctx, http.MethodGet, shop, token, "/admin/api/shop.json", nil, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Shop.Domain) == "" {
		out.Shop.Domain = strings.TrimSpace(shop)
	}
	return &out.Shop, nil
}

// CreateWebhook registers a webhook subscription on the shop.
func (c *Client) CreateWebhook(ctx context.Context, shop, token string, webhook Webhook) (*Webhook, error) {
	payload := map[string]Webhook{"webhook": webhook}
	var out struct {
		Webhook Webhook `json:"webhook"`
	}
	if err := c.doJSON(ctx, http.MethodPost, shop, token, "/admin/api/webhooks.json", payload, &out); err != nil {
		return nil, err
	}
	return &out.Webhook, nil
}

// CreateRecurringCharge creates a recurring application charge and returns it
// with the confirmation URL the merchant must approve on.
func (c *Client) CreateRecurringCharge(ctx context.Context, shop, token string, spec ChargeSpec) (*Charge, error) {
	payload := map[string]ChargeSpec{"recurring_application_charge": spec}
	var out struct {
		Charge Charge `json:"recurring_application_charge"`
	}
	if err := c.doJSON(ctx, http.MethodPost, shop, token, "/admin/api/recurring_application_charges.json", payload, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Charge.ConfirmationURL) == "" {
		return nil, errors.New("recurring charge response missing confirmation_url")
	}
	return &out.Charge, nil
}

// GetRecurringCharge reads the current state of a recurring charge.
func (c *Client) GetRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*Charge, error) {
	var out struct {
		Charge Charge `json:"recurring_application_charge"`
	}
	path := fmt.Sprintf("/admin/api/recurring_application_charges/%d.json", chargeID)
	if err := c.doJSON(ctx, http.MethodGet, shop, token, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Charge, nil
}

// ActivateRecurringCharge turns an accepted charge into an active one.
func (c *Client) ActivateRecurringCharge(ctx context.Context, shop, token string, chargeID int64) error {
	path := fmt.Sprintf("/admin/api/recurring_application_charges/%d/activate.json", chargeID)
	return c.doJSON(ctx, http.MethodPost, shop, token, path, nil, nil)
}

func (c *Client) scheme() string {
	if strings.TrimSpace(c.Scheme) == "" {
		return "https"
	}
	return c.Scheme
}

// doJSON performs one shop-scoped API call. Non-2xx responses become errors;
// a 404 maps to ErrNotFound so callers can branch without string matching.
func (c *Client) doJSON(ctx context.Context, method, shop, token, path string, payload, out interface{}) error {
	domain, err := normalizeShopDomain(shop)
	if err != nil {
		return err
	}

	u := &url.URL{
		Scheme: c.scheme(),
		Host:   domain,
		Path:   path,
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("X-Platform-Access-Token", strings.TrimSpace(token))
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("platform request %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// normalizeShopDomain strips scheme/path noise and validates the storefront
// domain the platform hands us in query parameters.
func normalizeShopDomain(shop string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(shop))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if s == "" || strings.ContainsAny(s, " ?#@") {
		return "", fmt.Errorf("invalid shop domain %q", shop)
	}
	return s, nil
}
