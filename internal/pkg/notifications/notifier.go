package notifications

import (
	"fmt"
	"log"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/internal/pkg/env"
	"github.com/StoreKeel/StoreKeel/internal/pkg/mail"
)

// Notifier is the fire-and-observe side channel for operator notifications.
// Every call returns whether the notification went out; failures are logged
// by callers, never escalated into the request flow.
type Notifier interface {
	WebhookCreationFailed(tenant *models.Tenant, topic string, cause error) bool
	Installed(tenant *models.Tenant, planName string) bool
	Upgraded(tenant *models.Tenant, oldPlanID, newPlanID int64) bool
	Uninstalled(tenantID uint, loginName string) bool
	PaymentInfoSaveFailed(tenant *models.Tenant, chargeID int64, cause error) bool
}

// SMTPNotifier sends operator notifications by email.
type SMTPNotifier struct {
	Recipient string
}

// NewSMTPNotifierFromEnv builds a notifier addressed to NOTIFY_EMAIL.
func NewSMTPNotifierFromEnv() *SMTPNotifier {
	return &SMTPNotifier{
		Recipient: env.GetEnv("NOTIFY_EMAIL", ""),
	}
}

func (n *SMTPNotifier) send(subject, body string) bool {
	if n.Recipient == "" {
		log.Printf("notification dropped, NOTIFY_EMAIL not set: %s", subject)
		return false
	}
	if err := mail.SendMail(n.Recipient, subject, body); err != nil {
		log.Printf("notification send failed: %v", err)
		return false
	}
	return true
}

func (n *SMTPNotifier) WebhookCreationFailed(tenant *models.Tenant, topic string, cause error) bool {
	return n.send(
		fmt.Sprintf("Webhook creation failed for %s", tenant.LoginName),
		fmt.Sprintf("Could not create the %q webhook for tenant %d (%s): %v", topic, tenant.ID, tenant.LoginName, cause),
	)
}

func (n *SMTPNotifier) Installed(tenant *models.Tenant, planName string) bool {
	return n.send(
		fmt.Sprintf("New installation: %s", tenant.LoginName),
		fmt.Sprintf("Tenant %d (%s) installed the app on plan %q.", tenant.ID, tenant.LoginName, planName),
	)
}

func (n *SMTPNotifier) Upgraded(tenant *models.Tenant, oldPlanID, newPlanID int64) bool {
	return n.send(
		fmt.Sprintf("Plan change: %s", tenant.LoginName),
		fmt.Sprintf("Tenant %d (%s) moved from plan %d to plan %d.", tenant.ID, tenant.LoginName, oldPlanID, newPlanID),
	)
}

func (n *SMTPNotifier) Uninstalled(tenantID uint, loginName string) bool {
	return n.send(
		fmt.Sprintf("Uninstalled: %s", loginName),
		fmt.Sprintf("Tenant %d (%s) uninstalled the app.", tenantID, loginName),
	)
}

func (n *SMTPNotifier) PaymentInfoSaveFailed(tenant *models.Tenant, chargeID int64, cause error) bool {
	return n.send(
		fmt.Sprintf("Payment info save failed for %s", tenant.LoginName),
		fmt.Sprintf("Charge %d activated on the platform but could not be persisted for tenant %d (%s): %v", chargeID, tenant.ID, tenant.LoginName, cause),
	)
}

// NopNotifier discards every notification; tests and local setups use it.
type NopNotifier struct{}

func (NopNotifier) WebhookCreationFailed(*models.Tenant, string, error) bool { return true }
func (NopNotifier) Installed(*models.Tenant, string) bool                    { return true }
func (NopNotifier) Upgraded(*models.Tenant, int64, int64) bool               { return true }
func (NopNotifier) Uninstalled(uint, string) bool                            { return true }
func (NopNotifier) PaymentInfoSaveFailed(*models.Tenant, int64, error) bool  { return true }
