package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/celltrack/celltrack-backend-go/internal/config"
	"github.com/celltrack/celltrack-backend-go/internal/database"
)

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.EnsureSchema(db))
	t.Cleanup(func() { db.Close() })

	if cfg == nil {
		cfg = &config.Config{MaxUploadBytes: 16 << 20}
	}
	return SetupRouter(cfg, db)
}

func uploadRequest(t *testing.T, csv string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

const routerCSV = `subscriber_id,timestamp,tower_id,latitude,longitude
9000000001,2024-03-01 10:00:00,T1,12.9,77.5
9000000001,2024-03-01 11:00:00,T1,12.9,77.5
`

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestUploadAndSearchFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, routerCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var uploaded struct {
		Data struct {
			BatchID string `json:"batch_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	assert.NotEmpty(t, uploaded.Data.BatchID)

	w = httptest.NewRecorder()
	search := strings.NewReader(`{"type":"mobile","value":"9000000001"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", search)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var found struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Len(t, found.Data, 2)
}

func TestUploadWithoutFile(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchUnknownType(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"type":"psychic"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	payload := `{"columns":["subscriber_id"],"rows":[["9000000001"]]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/export", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "analysis_results.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestAuthProtectsAPI(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		AuthAccessKey:  "letmein",
		MaxUploadBytes: 16 << 20,
	}
	router := newTestRouter(t, cfg)

	// protected route without a token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/towers", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// wrong access key
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"access_key":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// issue a token with the right key
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"access_key":"letmein"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var issued struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
	require.NotEmpty(t, issued.Data.Token)

	// the token unlocks the protected route
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/towers", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Data.Token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
