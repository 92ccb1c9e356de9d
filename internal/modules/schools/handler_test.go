package schools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	handler := NewHandler(NewService(server.URL, server.Client()))
	router := gin.New()
	group := router.Group("/api/v1")
	handler.RegisterRoutes(group)
	handler.RegisterProtectedRoutes(group)
	return router
}

func TestHandler_ListSchoolsDropsUnknownParams(t *testing.T) {
	router := setupRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Roma", r.URL.Query().Get("citta"))
		assert.Empty(t, r.URL.Query().Get("evil"))
		json.NewEncoder(w).Encode(map[string]any{"scuole": []any{}})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schools?citta=Roma&evil=1", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_GetSchoolNotFound(t *testing.T) {
	router := setupRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schools/99", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SCHOOL_NOT_FOUND")
}

func TestHandler_GetSchoolBadID(t *testing.T) {
	router := setupRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schools/abc", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateSubjectProxiesUpstream(t *testing.T) {
	router := setupRouter(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/materie", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "nome": "Fisica"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects", strings.NewReader(`{"nome": "Fisica"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fisica")
}

func TestHandler_UpstreamDownIsBadGateway(t *testing.T) {
	router := setupRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subjects", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPSTREAM_UNAVAILABLE")
}
