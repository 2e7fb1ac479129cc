package hooks

import "github.com/StoreKeel/StoreKeel/app/models"

// Lifecycle is the set of optional callback slots a concrete app can hang
// behavior on. Nil slots are no-ops; the framework never requires any of them.
type Lifecycle struct {
	// LoggedIn fires after a tenant signs in through the handshake.
	LoggedIn func(tenant *models.Tenant)
	// PlanChanged fires when an existing tenant activates a different plan.
	PlanChanged func(tenant *models.Tenant, oldPlanID, newPlanID int64)
	// PostInstallation fires once after a brand-new installation activates
	// its first charge.
	PostInstallation func(tenant *models.Tenant)
	// ChargeDeclined fires when the merchant declines the recurring charge.
	ChargeDeclined func(tenant *models.Tenant)
	// TenantDeleted fires after uninstall removed the tenant row.
	TenantDeleted func(tenant *models.Tenant)
	// TenantDeleteFailed fires when uninstall could not remove the row.
	TenantDeleteFailed func(tenant *models.Tenant, cause error)
	// UninstallFinished fires at the end of uninstall processing, found or not.
	UninstallFinished func(tenantID uint)
}

func (l *Lifecycle) FireLoggedIn(tenant *models.Tenant) {
	if l != nil && l.LoggedIn != nil {
		l.LoggedIn(tenant)
	}
}

func (l *Lifecycle) FirePlanChanged(tenant *models.Tenant, oldPlanID, newPlanID int64) {
	if l != nil && l.PlanChanged != nil {
		l.PlanChanged(tenant, oldPlanID, newPlanID)
	}
}

func (l *Lifecycle) FirePostInstallation(tenant *models.Tenant) {
	if l != nil && l.PostInstallation != nil {
		l.PostInstallation(tenant)
	}
}

func (l *Lifecycle) FireChargeDeclined(tenant *models.Tenant) {
	if l != nil && l.ChargeDeclined != nil {
		l.ChargeDeclined(tenant)
	}
}

func (l *Lifecycle) FireTenantDeleted(tenant *models.Tenant) {
	if l != nil && l.TenantDeleted != nil {
		l.TenantDeleted(tenant)
	}
}

func (l *Lifecycle) FireTenantDeleteFailed(tenant *models.Tenant, cause error) {
	if l != nil && l.TenantDeleteFailed != nil {
		l.TenantDeleteFailed(tenant, cause)
	}
}

func (l *Lifecycle) FireUninstallFinished(tenantID uint) {
	if l != nil && l.UninstallFinished != nil {
		l.UninstallFinished(tenantID)
	}
}
