package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/audit"
	"github.com/chipsfactory/prodreport/internal/server/auth"
	"github.com/chipsfactory/prodreport/internal/server/credstore"
	"github.com/chipsfactory/prodreport/internal/server/dataset"
	"github.com/chipsfactory/prodreport/internal/server/editor"
	"github.com/chipsfactory/prodreport/internal/server/models"
	"github.com/chipsfactory/prodreport/internal/server/sessions"
)

const apiTestCSV = `Date,Shift,Product_Name,Planned_Production_Units,Actual_Production_Units,Defect_Count
2025-08-01,Morning,Salted Classic,1000,950,7
2025-08-01,Night,Sour Cream,800,820,3
2025-08-02,Morning,Salted Classic,1000,990,12
`

type testEnv struct {
	router  *gin.Engine
	trail   audit.Trail
	csvPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	csvPath := filepath.Join(dir, "production.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(apiTestCSV), 0o600))

	creds, err := credstore.NewJSONFileRepository(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	for _, account := range []models.Account{
		{Username: "alice", PasswordHash: auth.HashPassword("adminpass"), FullName: "Alice A.", Role: models.RoleAdmin},
		{Username: "bob", PasswordHash: auth.HashPassword("viewerpass"), Role: models.RoleViewer},
		{Username: "carol", PasswordHash: auth.HashPassword("analystpass"), Role: models.RoleAnalyst},
	} {
		a := account
		require.NoError(t, creds.Upsert(context.Background(), &a))
	}

	loader := dataset.NewLoader(dataset.MultiFetcher{Local: dataset.LocalFetcher{}}, "Date")
	trail := audit.NewCSVTrail(filepath.Join(dir, "audit.csv"))
	manager := sessions.NewManager(creds, []byte("test-secret"), time.Hour, log)
	datasetService := dataset.NewService(loader, creds, log)
	gateway := editor.NewGateway(trail, log)

	server := NewServer(":0", log, manager, datasetService, gateway, trail, nil)
	return &testEnv{router: server.Router(), trail: trail, csvPath: csvPath}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin_BadCredentialsDoNotDistinguishUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	wrongPass := env.do(t, http.MethodPost, "/api/login", "", gin.H{"username": "carol", "password": "nope"})
	unknown := env.do(t, http.MethodPost, "/api/login", "", gin.H{"username": "mallory", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/dataset", "/api/report", "/api/audit"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := env.do(t, http.MethodGet, "/api/dataset", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoadDataset_RoleGate(t *testing.T) {
	env := newTestEnv(t)

	viewer := env.login(t, "bob", "viewerpass")
	w := env.do(t, http.MethodPost, "/api/dataset/load", viewer, gin.H{"source": env.csvPath})
	assert.Equal(t, http.StatusForbidden, w.Code)

	analyst := env.login(t, "carol", "analystpass")
	w = env.do(t, http.MethodPost, "/api/dataset/load", analyst, gin.H{"source": env.csvPath})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, 6, resp.Columns)
}

func TestEditFlow_AdminEditIsAppliedAndAudited(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "alice", "adminpass")

	w := env.do(t, http.MethodPost, "/api/dataset/load", admin, gin.H{"source": env.csvPath})
	require.Equal(t, http.StatusOK, w.Code)

	rowID := 0
	w = env.do(t, http.MethodPost, "/api/edit", admin, gin.H{"row_id": rowID, "column": "Defect_Count", "new_value": "12"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// the change is visible in the dataset view
	w = env.do(t, http.MethodGet, "/api/dataset", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ds struct {
		Rows []struct {
			RowID int               `json:"row_id"`
			Cells map[string]string `json:"cells"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	assert.Equal(t, "12", ds.Rows[0].Cells["Defect_Count"])

	// and recorded in the audit trail
	w = env.do(t, http.MethodGet, "/api/audit", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trail struct {
		Records []struct {
			Username string `json:"username"`
			RowID    int    `json:"row_id"`
			OldValue string `json:"old_value"`
			NewValue string `json:"new_value"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trail))
	require.Len(t, trail.Records, 1)
	assert.Equal(t, "alice", trail.Records[0].Username)
	assert.Equal(t, "7", trail.Records[0].OldValue)
	assert.Equal(t, "12", trail.Records[0].NewValue)
}

func TestEdit_ViewerForbiddenWithoutSideEffects(t *testing.T) {
	env := newTestEnv(t)

	admin := env.login(t, "alice", "adminpass")
	w := env.do(t, http.MethodPost, "/api/dataset/load", admin, gin.H{"source": env.csvPath})
	require.Equal(t, http.StatusOK, w.Code)

	viewer := env.login(t, "bob", "viewerpass")
	w = env.do(t, http.MethodPost, "/api/edit", viewer, gin.H{"row_id": 0, "column": "Defect_Count", "new_value": "12"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	records, err := env.trail.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEdit_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "alice", "adminpass")

	w := env.do(t, http.MethodPost, "/api/dataset/load", admin, gin.H{"source": env.csvPath})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/edit", admin, gin.H{"row_id": 999, "column": "Defect_Count", "new_value": "12"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/edit", admin, gin.H{"row_id": 0, "column": "Ghost_Column", "new_value": "12"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/edit", admin, gin.H{"row_id": 0, "column": "Defect_Count", "new_value": "a dozen"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReport_RequiresLoadedDataset(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.login(t, "bob", "viewerpass")

	w := env.do(t, http.MethodGet, "/api/report", viewer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "alice", "adminpass")

	w := env.do(t, http.MethodPost, "/api/logout", admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/dataset", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssistant_UnconfiguredReturns503(t *testing.T) {
	env := newTestEnv(t)
	analyst := env.login(t, "carol", "analystpass")

	w := env.do(t, http.MethodPost, "/api/assistant", analyst, gin.H{"question": "how much waste?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
