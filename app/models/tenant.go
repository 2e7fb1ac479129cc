package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_TENANT = "tenant"
	ROLE_ADMIN  = "admin"
)

// Tenant is one installed storefront account. LoginName is the storefront
// domain on the commerce platform and doubles as the sign-in identity.
// PlatformToken == nil means the tenant is disconnected from the platform API;
// ChargeID == nil means no active recurring charge.
type Tenant struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	LoginName     string         `gorm:"uniqueIndex;type:varchar(200)" json:"login_name" validate:"required,min=4,max=200"`
	Email         string         `gorm:"type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password      string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role          string         `gorm:"type:varchar(50);default:'tenant'" json:"role" validate:"oneof=tenant admin"`
	PlatformToken *string        `gorm:"type:text;default:null" json:"-"`
	ChargeID      *int64         `gorm:"default:null" json:"charge_id,omitempty"`
	PlanID        *int64         `gorm:"index;default:null" json:"plan_id,omitempty"`
	BillingOn     *time.Time     `gorm:"type:timestamp;default:null" json:"billing_on,omitempty"`
	LastLoginAt   *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Tenant) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// CreateTenant builds a validated tenant with a hashed password. The caller
// persists the result via the tenant repository.
func CreateTenant(loginName, email, password string) (*Tenant, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	t := &Tenant{
		LoginName: strings.ToLower(strings.TrimSpace(loginName)),
		Email:     strings.TrimSpace(email),
		Password:  pw,
		Role:      ROLE_TENANT,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// DerivePassword yields the deterministic sign-in password for a storefront.
// The same shop domain and email always derive the same password, which lets
// the handshake sign an already-installed tenant back in without persisting
// any extra secret.
func DerivePassword(shopDomain, email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(shopDomain)) + ":" + strings.TrimSpace(email)))
	return hex.EncodeToString(sum[:])
}

// IsAdmin reports whether the tenant holds the admin role. The flag is derived
// from the role at read time, never stored separately.
func (t *Tenant) IsAdmin() bool {
	return t.Role == ROLE_ADMIN
}

// IsNewInstallation reports whether the tenant has never completed a billing
// flow. A missing or non-positive plan id marks a fresh installation.
func (t *Tenant) IsNewInstallation() bool {
	return t.PlanID == nil || *t.PlanID <= 0
}

// HasPlatformToken reports whether the tenant is connected to the platform API.
func (t *Tenant) HasPlatformToken() bool {
	return t.PlatformToken != nil && strings.TrimSpace(*t.PlatformToken) != ""
}

// HasActiveCharge reports whether a recurring charge id is on record.
func (t *Tenant) HasActiveCharge() bool {
	return t.ChargeID != nil && *t.ChargeID > 0
}

// CurrentPlanID returns the plan id or 0 when no plan is assigned.
func (t *Tenant) CurrentPlanID() int64 {
	if t.PlanID == nil {
		return 0
	}
	return *t.PlanID
}

// SetActiveCharge assigns charge id, plan id and the billing period start in
// one step. It is the only mutator of the charge triple, which keeps the
// "charge id implies plan id and billing timestamp" invariant intact.
func (t *Tenant) SetActiveCharge(chargeID, planID int64, billingOn time.Time) {
	t.ChargeID = &chargeID
	t.PlanID = &planID
	t.BillingOn = &billingOn
}

// ClearActiveCharge removes charge, plan and billing timestamp together.
// Used when the platform reports the subscription as no longer collectable.
func (t *Tenant) ClearActiveCharge() {
	t.ChargeID = nil
	t.PlanID = nil
	t.BillingOn = nil
}

// CheckPassword verifies if the provided password matches the tenant's stored password
func (t *Tenant) CheckPassword(password string) bool {
	return CheckPasswordHash(password, t.Password)
}

// SetPassword hashes and sets a new password for the tenant
func (t *Tenant) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	t.Password = hashedPassword
	return nil
}
