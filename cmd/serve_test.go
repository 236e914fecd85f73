package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spegfinder/clearview/internal/model"
	"github.com/spegfinder/clearview/internal/store"
)

const serveTestDoc = `<html><head><title>Accounts</title></head><body>
<xbrli:context id="cye">
  <xbrli:period><xbrli:instant>2023-12-31</xbrli:instant></xbrli:period>
</xbrli:context>
<p><ix:nonFraction name="uk-core:NetAssetsLiabilities" contextRef="cye">5,000</ix:nonFraction></p>
<!-- padding padding padding padding padding padding padding padding -->
<!-- padding padding padding padding padding padding padding padding -->
</body></html>`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	r23 := model.NewPeriodRecord("2023-12-31")
	r23.Set(model.NetAssets, 300)
	r22 := model.NewPeriodRecord("2022-12-31")
	r22.Set(model.NetAssets, 400)
	require.NoError(t, st.ReplaceRecords(ctx, "00012345", []*model.PeriodRecord{r23, r22}))

	return newRouter(st, model.DefaultTaxonomy())
}

func TestServeHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeCompanies(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Companies []string `json:"companies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"00012345"}, body.Companies)
}

func TestServeFinancials(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/00012345/financials", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		CompanyNumber string            `json:"company_number"`
		Series        []json.RawMessage `json:"series"`
		Trajectory    struct {
			YearsAvailable int `json:"years_available"`
			YearsDeclining int `json:"years_declining"`
		} `json:"trajectory"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "00012345", body.CompanyNumber)
	assert.Len(t, body.Series, 2)
	assert.Equal(t, 2, body.Trajectory.YearsAvailable)
	assert.Equal(t, 1, body.Trajectory.YearsDeclining)
}

func TestServeFinancialsNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/99999999/financials", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeParse(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(serveTestDoc))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Records []json.RawMessage `json:"records"`
		Series  []json.RawMessage `json:"series"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Len(t, body.Series, 1)
}
