package main

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served contract file must stay a valid OpenAPI 3 document and keep
// describing the routes the router actually mounts.
func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../public/docs/v1/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{
		"/install/handshake",
		"/install/authresult",
		"/install/plans",
		"/install/plans/select",
		"/install/chargeresult",
		"/webhooks/uninstall",
		"/admin/catalog/reload",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from contract", path)
	}
}
