package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogPayload = `{
	"basique": [
		{
			"name": "daily_prices",
			"path": "/prices/daily",
			"methods": ["GET"],
			"summary": "Daily price series",
			"parameters": [
				{"name": "limit", "type": "Optional[int]", "default": "", "required": false},
				{"name": "format", "type": "Literal['json', 'csv']", "default": "json", "required": false},
				{"name": "symbol", "type": "str", "default": "", "required": true}
			]
		}
	],
	"pro": [
		{"name": "intraday", "path": "/prices/intraday", "methods": ["GET"], "summary": "", "parameters": []}
	]
}`

func newCatalogService(t *testing.T, payload string, status int) *CatalogService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/all_endpoints_by_tag", r.URL.Path)
		w.WriteHeader(status)
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	return NewCatalogService(&config.Config{
		CatalogServiceURL: srv.URL,
		UpstreamTimeout:   5 * time.Second,
	})
}

func TestResolveEndpointsTransformsParameters(t *testing.T) {
	s := newCatalogService(t, catalogPayload, http.StatusOK)

	endpoints, err := s.ResolveEndpoints("Basique")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)

	ep := endpoints[0]
	assert.Equal(t, "daily_prices", ep.Name)
	require.Len(t, ep.Parameters, 3)

	limit := ep.Parameters[0]
	assert.Equal(t, "int", limit.Type)
	assert.Empty(t, limit.Options)

	format := ep.Parameters[1]
	assert.Equal(t, "enum", format.Type)
	assert.Equal(t, []string{"json", "csv"}, format.Options)

	symbol := ep.Parameters[2]
	assert.Equal(t, "string", symbol.Type)
	assert.True(t, symbol.Required)
}

func TestResolveEndpointsSynthesizesHeaders(t *testing.T) {
	s := newCatalogService(t, catalogPayload, http.StatusOK)

	endpoints, err := s.ResolveEndpoints("pro")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)

	headers := endpoints[0].Headers
	require.Len(t, headers, 2)
	assert.Equal(t, "accept", headers[0].Name)
	assert.Equal(t, "application/json", headers[0].Value)
	assert.Equal(t, "Authorization", headers[1].Name)
	// The caller fills the Authorization value in per call; it must ship empty.
	assert.Empty(t, headers[1].Value)
	assert.True(t, headers[1].Required)
}

func TestResolveEndpointsUnknownTagIsEmpty(t *testing.T) {
	s := newCatalogService(t, catalogPayload, http.StatusOK)

	endpoints, err := s.ResolveEndpoints("entreprise")
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}

func TestResolveEndpointsCatalogDown(t *testing.T) {
	s := newCatalogService(t, "oops", http.StatusServiceUnavailable)

	_, err := s.ResolveEndpoints("pro")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClassifyParamType(t *testing.T) {
	cases := []struct {
		declared string
		wantType string
		wantOpts []string
	}{
		{"str", "string", nil},
		{"string", "string", nil},
		{"int", "int", nil},
		{"bool", "bool", nil},
		{"float", "float", nil},
		{"Optional[str]", "string", nil},
		{"Optional[Optional[int]]", "int", nil},
		{"Union[str, None]", "string", nil},
		{"Literal['a', 'b', 'c']", "enum", []string{"a", "b", "c"}},
		{`Literal["x"]`, "enum", []string{"x"}},
		{"enum(asc|desc)", "enum", []string{"asc", "desc"}},
		{"date", "date", nil},
	}

	for _, tc := range cases {
		gotType, gotOpts := classifyParamType(tc.declared)
		assert.Equal(t, tc.wantType, gotType, "declared=%s", tc.declared)
		assert.Equal(t, tc.wantOpts, gotOpts, "declared=%s", tc.declared)
	}
}
