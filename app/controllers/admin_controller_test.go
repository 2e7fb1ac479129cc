package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
)

func newAdminApp(repo *stubTenantRepo, events *stubEventRepo, catalog *plancatalog.Catalog) *fiber.App {
	InitializeAdminController(catalog, repo, events)

	app := fiber.New()
	app.Post("/admin/catalog/reload", HandleCatalogReload)
	app.Get("/admin/tenants", HandleTenantList)
	app.Get("/admin/events", HandleEventList)
	return app
}

func TestHandleCatalogReload(t *testing.T) {
	app := newAdminApp(newStubTenantRepo(900), &stubEventRepo{}, testCatalog())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/admin/catalog/reload", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, true, body["ok"])
}

func TestHandleTenantListPages(t *testing.T) {
	repo := newStubTenantRepo(910)
	repo.add(&models.Tenant{LoginName: "shop-a.example"})
	repo.add(&models.Tenant{LoginName: "shop-b.example"})
	repo.add(&models.Tenant{LoginName: "shop-c.example"})
	app := newAdminApp(repo, &stubEventRepo{}, testCatalog())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/tenants?offset=1&limit=1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		Tenants []models.Tenant `json:"tenants"`
		Total   int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Tenants, 1)
	assert.Equal(t, "shop-b.example", body.Tenants[0].LoginName)
	assert.Equal(t, int64(3), body.Total)
}

func TestHandleEventList(t *testing.T) {
	events := &stubEventRepo{}
	_, _, err := events.CreateIfNotExists(&models.PlatformEvent{EventID: "evt-a", Topic: models.TopicAppUninstalled})
	require.NoError(t, err)
	_, _, err = events.CreateIfNotExists(&models.PlatformEvent{EventID: "evt-b", Topic: models.TopicAppUninstalled})
	require.NoError(t, err)
	app := newAdminApp(newStubTenantRepo(920), events, testCatalog())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/events?limit=1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		Events []models.PlatformEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, "evt-b", body.Events[0].EventID, "newest first")
}
