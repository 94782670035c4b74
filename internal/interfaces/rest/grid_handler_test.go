package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestprev/backend/internal/application/services"
	"github.com/gestprev/backend/internal/infrastructure/persistence"
	"github.com/gestprev/backend/internal/interfaces/middleware"
	"github.com/gestprev/backend/pkg/auth"
	"github.com/gestprev/backend/pkg/grid"
)

type stubSchema struct{ catalog grid.ColumnCatalog }

func (s stubSchema) Columns(ctx context.Context, table string) (grid.ColumnCatalog, error) {
	return s.catalog, nil
}

type stubGridRepo struct {
	rows     []grid.Row
	found    bool
	affected int64
}

func (s *stubGridRepo) Count(ctx context.Context, where string, args []interface{}) (int64, error) {
	return int64(len(s.rows)), nil
}

func (s *stubGridRepo) Page(ctx context.Context, where string, args []interface{}, orderColumn, orderDir string, limit, offset int) ([]grid.Row, error) {
	return s.rows, nil
}

func (s *stubGridRepo) Export(ctx context.Context, where string, args []interface{}) ([]grid.Row, error) {
	return s.rows, nil
}

func (s *stubGridRepo) Distinct(ctx context.Context, column, where string, args []interface{}) ([]string, error) {
	return []string{"A"}, nil
}

func (s *stubGridRepo) CurrentValue(ctx context.Context, tx *sql.Tx, pk, column string) (*string, bool, error) {
	old := "vecchio"
	return &old, s.found, nil
}

func (s *stubGridRepo) UpdateCell(ctx context.Context, tx *sql.Tx, pk, column string, value interface{}) (int64, error) {
	return s.affected, nil
}

type stubAudit struct {
	recent []persistence.AuditEntry
}

func (s *stubAudit) Insert(ctx context.Context, tx *sql.Tx, entry persistence.AuditEntry) error {
	return nil
}

func (s *stubAudit) Recent(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	return s.recent, nil
}

type stubTx struct{}

func (stubTx) WithTransaction(fn func(tx *sql.Tx) error) error { return fn(nil) }

func newGridRouter(repo *stubGridRepo) *gin.Engine {
	return newGridRouterForRole(repo, 3)
}

func newGridRouterForRole(repo *stubGridRepo, roleID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := services.NewGridService(services.DefaultGridConfig(),
		stubSchema{catalog: grid.ColumnCatalog{"ID", "Cliente", "MesePresentazione"}},
		repo, &stubAudit{}, stubTx{})
	handler := NewGridHandler(svc, nil)

	router := gin.New()
	// Stand-in for the session middleware
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, auth.UserSession{ID: 1, Login: "mario", RoleID: roleID})
	})
	api := router.Group("/api")
	handler.RegisterRoutes(api)
	api.GET("/servizi/ge/log", middleware.RequireAdmin(), handler.AuditTrail)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDataEndpointEchoesDrawAndRows(t *testing.T) {
	repo := &stubGridRepo{rows: []grid.Row{
		grid.NewRow([]string{"ID", "Cliente"}, map[string]interface{}{"ID": "1", "Cliente": "ROSSI"}),
	}}
	router := newGridRouter(repo)

	w := postJSON(router, "/api/servizi/ge/data",
		`{"draw":9,"start":0,"length":10,"search":{"value":""},"order":[{"column":1,"dir":"desc"}]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result services.ListingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 9, result.Draw)
	assert.Equal(t, int64(1), result.RecordsTotal)

	// Key order in each data object follows the column order
	assert.Contains(t, w.Body.String(), `{"ID":"1","Cliente":"ROSSI"}`)
}

func TestDataEndpointRejectsMalformedBody(t *testing.T) {
	router := newGridRouter(&stubGridRepo{})

	w := postJSON(router, "/api/servizi/ge/data", `{"draw":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMonthsEndpoint(t *testing.T) {
	router := newGridRouter(&stubGridRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/servizi/ge/months", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var months []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &months))
	assert.Equal(t, "GENNAIO", months[0])
	assert.Equal(t, "TUTTO", months[len(months)-1])
}

func TestUpdateEndpointValidation(t *testing.T) {
	router := newGridRouter(&stubGridRepo{found: true, affected: 1})

	w := postJSON(router, "/api/servizi/ge/update", `{"pk":"","field":"Cliente","value":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEndpointMissingRow(t *testing.T) {
	router := newGridRouter(&stubGridRepo{found: false})

	w := postJSON(router, "/api/servizi/ge/update", `{"pk":"99","field":"Cliente","value":"x"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateEndpointSuccess(t *testing.T) {
	router := newGridRouter(&stubGridRepo{found: true, affected: 1})

	w := postJSON(router, "/api/servizi/ge/update", `{"pk":"5","field":"Cliente","value":"BIANCHI"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
}

func TestUpdateEndpointAcceptsNumericPK(t *testing.T) {
	router := newGridRouter(&stubGridRepo{found: true, affected: 1})

	w := postJSON(router, "/api/servizi/ge/update", `{"pk":1,"field":"Cliente","value":"BIANCHI"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
}

func TestUpdateEndpointMissingPK(t *testing.T) {
	router := newGridRouter(&stubGridRepo{found: true, affected: 1})

	w := postJSON(router, "/api/servizi/ge/update", `{"field":"Cliente","value":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScalarToString(t *testing.T) {
	assert.Equal(t, "", scalarToString(nil))
	assert.Equal(t, "5", scalarToString("5"))
	assert.Equal(t, "5", scalarToString(float64(5)))
	assert.Equal(t, "5.5", scalarToString(5.5))
	assert.Equal(t, "true", scalarToString(true))
}

func TestAuditLogEndpointRequiresAdmin(t *testing.T) {
	router := newGridRouterForRole(&stubGridRepo{}, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/servizi/ge/log", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PERMISSION_DENIED")
}

func TestAuditLogEndpointForAdmin(t *testing.T) {
	router := newGridRouterForRole(&stubGridRepo{}, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/servizi/ge/log", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var entries []auditEntryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestDataRequestCarriesDedicatedFilters(t *testing.T) {
	var req dataRequest
	require.NoError(t, json.Unmarshal(
		[]byte(`{"draw":2,"month_filter":"GENNAIO","rtc_filter":"RTC01"}`), &req))

	listing := req.toListing()
	assert.Equal(t, "GENNAIO", listing.MonthFilter)
	assert.Equal(t, "RTC01", listing.RTCFilter)
}

func TestUniqueValuesEndpointRejectsUnknownColumn(t *testing.T) {
	router := newGridRouter(&stubGridRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/servizi/ge/unique_values?column=Inesistente", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUniqueValuesListingVariant(t *testing.T) {
	router := newGridRouter(&stubGridRepo{})

	w := postJSON(router, "/api/servizi/ge/unique_values",
		`{"column":"Cliente","draw":1,"columns":[{"search":{"value":""}},{"search":{"value":"rossi"}}]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var values []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &values))
	assert.Equal(t, []string{"A"}, values)
}

func TestHumanizeTitle(t *testing.T) {
	assert.Equal(t, "Mese Presentazione", humanizeTitle("mese_presentazione"))
	assert.Equal(t, "Id", humanizeTitle("ID"))
	assert.Equal(t, "Cliente", humanizeTitle("cliente"))
}
