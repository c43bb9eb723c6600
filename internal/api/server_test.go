package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgertrace/custodia/internal/custody"
	"github.com/ledgertrace/custodia/internal/identity"
	"github.com/ledgertrace/custodia/internal/ledger"
	"github.com/ledgertrace/custodia/internal/ledger/ledgertest"
	"github.com/ledgertrace/custodia/internal/mirror"
)

const testOperator = "operator-1"

func setupServer(t *testing.T) (*httptest.Server, *ledgertest.Fake) {
	t.Helper()

	store, err := mirror.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fake := ledgertest.New()
	clock := func() time.Time { return time.Now() }

	materials, err := custody.New(custody.Config{
		Ledger: fake, Store: store, Operator: testOperator, Now: clock,
	})
	require.NoError(t, err)
	waste, err := custody.NewWasteEngine(custody.Config{
		Ledger: fake, Store: store, Operator: testOperator, Now: clock,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(New(materials, waste, identity.New(store, nil)))
	t.Cleanup(srv.Close)
	return srv, fake
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func createMaterialViaAPI(t *testing.T, srv *httptest.Server, id string) {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/", map[string]any{
		"materialId":  id,
		"description": "steel coil",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
}

func TestAPI_CreateAndGetMaterial(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/", map[string]any{
		"materialId":  "MAT-1",
		"description": "steel coil",
		"metadata":    map[string]any{"batch": "B-17"},
		"location":    map[string]any{"lat": 40.7484, "lng": -73.9857},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var created mirror.Material
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "MAT-1", created.MaterialID)
	assert.Equal(t, testOperator, created.CurrentHolder)
	require.NotNil(t, created.Location)
	assert.Equal(t, -73.9857, created.Location.Lng())
	assert.Equal(t, 40.7484, created.Location.Lat())

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/materials/MAT-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got mirror.Material
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, created.MaterialID, got.MaterialID)
	assert.Equal(t, created.TxHash, got.TxHash)
}

func TestAPI_CreateMaterial_Validation(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/", map[string]any{
		"materialId": "MAT-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "VALIDATION", body.Kind)
}

func TestAPI_CreateMaterial_DuplicateRejected(t *testing.T) {
	srv, _ := setupServer(t)

	createMaterialViaAPI(t, srv, "MAT-1")

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/", map[string]any{
		"materialId":  "MAT-1",
		"description": "again",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Kind   string `json:"kind"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "LEDGER_REJECTED", body.Kind)
	assert.NotEmpty(t, body.Reason)
}

func TestAPI_TransferFlow(t *testing.T) {
	srv, _ := setupServer(t)

	createMaterialViaAPI(t, srv, "MAT-1")

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/MAT-1/transfer", map[string]any{
		"newHolder":   "acme-corp",
		"from":        map[string]any{"lat": 40.7484, "lng": -73.9857},
		"to":          map[string]any{"lat": 38.8977, "lng": -77.0365},
		"description": "truck",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	var m mirror.Material
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "acme-corp", m.CurrentHolder)
	assert.Equal(t, int64(1), m.LastSequence)
	assert.Equal(t, mirror.StatusInTransit, m.Status)

	// Status endpoint reflects the transition
	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/materials/MAT-1/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"InTransit"}`, string(raw))

	// History carries exactly one event
	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/materials/MAT-1/transfers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []mirror.TransferEvent
	require.NoError(t, json.Unmarshal(raw, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "truck", events[0].Description)

	// Route is a feature collection: departure, arrival, path
	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/materials/MAT-1/route", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "departure", fc.Features[0].Properties["kind"])
	assert.Equal(t, "arrival", fc.Features[1].Properties["kind"])
	assert.Equal(t, "path", fc.Features[2].Properties["kind"])
}

func TestAPI_TransferUnknownMaterial(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/missing/transfer", map[string]any{
		"newHolder": "acme-corp",
		"from":      map[string]any{"lat": 0, "lng": 0},
		"to":        map[string]any{"lat": 1, "lng": 1},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "NOT_FOUND", body.Kind)
}

func TestAPI_TransferInvalidGeometry(t *testing.T) {
	srv, _ := setupServer(t)

	createMaterialViaAPI(t, srv, "MAT-1")

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/MAT-1/transfer", map[string]any{
		"newHolder": "acme-corp",
		"from":      map[string]any{"lat": 95, "lng": 0},
		"to":        map[string]any{"lat": 1, "lng": 1},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "INVALID_GEOMETRY", body.Kind)
}

func TestAPI_ListMaterials(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/materials/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)), "empty list must marshal as [], not null")

	createMaterialViaAPI(t, srv, "MAT-1")
	createMaterialViaAPI(t, srv, "MAT-2")

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/materials/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var materials []mirror.Material
	require.NoError(t, json.Unmarshal(raw, &materials))
	assert.Len(t, materials, 2)
}

func TestAPI_InvalidJSONBody(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Post(srv.URL+"/api/materials/", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ExportCSV(t *testing.T) {
	srv, _ := setupServer(t)

	createMaterialViaAPI(t, srv, "MAT-1")

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/materials/MAT-1/export/csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "MAT-1.csv")

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "materialId,description,currentHolder,lastSequence,status,txHash,metadata", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "MAT-1,steel coil,"+testOperator+",0,Created,"), "got %q", lines[1])
}

func TestAPI_WasteLifecycle(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/waste/", map[string]any{
		"wasteId":     "W-1",
		"wasteType":   "solvent",
		"hazardClass": "H3",
		"quantity":    40,
		"units":       "L",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	var w mirror.Waste
	require.NoError(t, json.Unmarshal(raw, &w))
	assert.Equal(t, int64(1), w.Sequence)

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/waste/W-1/transfer", map[string]any{
		"newHolder": "hauler-co",
		"from":      map[string]any{"lat": 52.52, "lng": 13.405},
		"to":        map[string]any{"lat": 48.1351, "lng": 11.582},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/waste/W-1/deliver", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/waste/W-1/dispose", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &w))
	assert.Equal(t, mirror.StatusDisposed, w.Status)
	assert.Equal(t, int64(4), w.Sequence)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/waste/W-1/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []mirror.WasteEvent
	require.NoError(t, json.Unmarshal(raw, &events))
	require.Len(t, events, 4)
}

func TestAPI_WasteIllegalTransitionConflicts(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/waste/", map[string]any{
		"wasteId":     "W-1",
		"wasteType":   "solvent",
		"hazardClass": "H3",
		"quantity":    40,
		"units":       "L",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)

	// Deliver straight from Created
	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/waste/W-1/deliver", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "TRANSFER_CONFLICT", body.Kind)
}

func TestAPI_CompanyRegisterAndLogin(t *testing.T) {
	srv, _ := setupServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/companies/", map[string]any{
		"name":     "acme-corp",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	assert.NotContains(t, string(raw), "hunter2", "password hash must not leak")

	// Duplicate name
	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/companies/", map[string]any{
		"name":     "acme-corp",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "DUPLICATE_KEY", body.Kind)

	// Login
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/companies/login", map[string]any{
		"name":     "acme-corp",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/companies/login", map[string]any{
		"name":     "acme-corp",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_LedgerOutageMapsToBadGateway(t *testing.T) {
	srv, fake := setupServer(t)

	fake.FailNextSubmit(ledger.NewInfrastructure(ledger.OpInitializeMaterial, "gateway timeout", nil))

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/materials/", map[string]any{
		"materialId":  "MAT-1",
		"description": "steel coil",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "LEDGER_UNAVAILABLE", body.Kind)
}
