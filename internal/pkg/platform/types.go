package platform

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Recurring charge statuses reported by the platform billing API.
const (
	ChargeStatusPending  = "pending"
	ChargeStatusAccepted = "accepted"
	ChargeStatusActive   = "active"
	ChargeStatusDeclined = "declined"
	ChargeStatusExpired  = "expired"
)

// ErrNotFound marks platform resources that do not exist (distinct from
// transport faults, which come back as plain wrapped errors).
var ErrNotFound = errors.New("platform: resource not found")

// Shop is the storefront metadata returned by the platform.
type Shop struct {
	Domain string `json:"domain"`
	Email  string `json:"email"`
}

// Webhook is a platform-side webhook registration.
type Webhook struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
	Topic   string `json:"topic"`
}

// ChargeSpec is the request shape for creating a recurring charge.
type ChargeSpec struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	TrialDays int     `json:"trial_days"`
	Test      bool    `json:"test"`
	ReturnURL string  `json:"return_url"`
}

// Charge is the platform's recurring billing record.
type Charge struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Price           float64    `json:"price,string"`
	Status          string     `json:"status"`
	BillingOn       *time.Time `json:"billing_on"`
	TrialDays       int        `json:"trial_days"`
	Test            bool       `json:"test"`
	ConfirmationURL string     `json:"confirmation_url"`
}

// IsCollectable reports whether the charge status entitles the tenant to the
// app: only accepted and active charges do.
func (c *Charge) IsCollectable() bool {
	return c.Status == ChargeStatusAccepted || c.Status == ChargeStatusActive
}

// BillingAPI is the surface of the commerce platform consumed by the app.
// Controllers and guards depend on this interface so tests can substitute a
// recording fake.
type BillingAPI interface {
	// IsAuthenticRequest verifies the HMAC the platform appends to browser
	// redirects (handshake, auth result).
	IsAuthenticRequest(c *fiber.Ctx) bool
	// IsAuthenticWebhook verifies the HMAC header of an inbound webhook body.
	IsAuthenticWebhook(signatureHeader string, body []byte) bool
	AuthorizationURL(shop string, scopes []string, returnURL string) (string, error)
	Authorize(ctx context.Context, shop, code string) (string, error)
	GetShop(ctx context.Context, shop, token string) (*Shop, error)
	CreateWebhook(ctx context.Context, shop, token string, webhook Webhook) (*Webhook, error)
	CreateRecurringCharge(ctx context.Context, shop, token string, spec ChargeSpec) (*Charge, error)
	GetRecurringCharge(ctx context.Context, shop, token string, chargeID int64) (*Charge, error)
	ActivateRecurringCharge(ctx context.Context, shop, token string, chargeID int64) error
}
