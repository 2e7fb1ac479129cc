package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/StoreKeel/StoreKeel/app/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Tenant{}))
	return db
}

func seedTenant(t *testing.T, repo TenantRepository, loginName string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		LoginName: loginName,
		Email:     "owner@" + loginName,
		Password:  "stored-hash",
		Role:      models.ROLE_TENANT,
	}
	require.NoError(t, repo.Create(tenant))
	return tenant
}

// A shop that uninstalls must be able to install again later. The login name
// is globally unique, so the delete has to free it for real.
func TestDeleteFreesLoginNameForReinstall(t *testing.T) {
	repo := NewTenantRepository(newTestDB(t))

	first := seedTenant(t, repo, "shop-a.example.com")
	require.NoError(t, repo.Delete(first.ID))

	_, err := repo.GetByLoginName("shop-a.example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	second := seedTenant(t, repo, "shop-a.example.com")

	got, err := repo.GetByLoginName("shop-a.example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestSetActiveChargePersistsPlatformBillingDate(t *testing.T) {
	repo := NewTenantRepository(newTestDB(t))
	tenant := seedTenant(t, repo, "shop-b.example.com")

	billingOn := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetActiveCharge(tenant.ID, 42, 3, billingOn))

	got, err := repo.GetByID(tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ChargeID)
	assert.Equal(t, int64(42), *got.ChargeID)
	require.NotNil(t, got.PlanID)
	assert.Equal(t, int64(3), *got.PlanID)
	require.NotNil(t, got.BillingOn)
	assert.True(t, got.BillingOn.Equal(billingOn))
}

func TestClearActiveChargeNullsTheTriple(t *testing.T) {
	repo := NewTenantRepository(newTestDB(t))
	tenant := seedTenant(t, repo, "shop-c.example.com")
	require.NoError(t, repo.SetActiveCharge(tenant.ID, 43, 2, time.Now()))

	require.NoError(t, repo.ClearActiveCharge(tenant.ID))

	got, err := repo.GetByID(tenant.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ChargeID)
	assert.Nil(t, got.PlanID)
	assert.Nil(t, got.BillingOn)
}
