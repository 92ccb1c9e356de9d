package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	userID    int64
	sessionID int64
	err       error
	gotToken  string
}

func (s *stubValidator) ValidateSession(_ context.Context, accessRaw string) (int64, int64, error) {
	s.gotToken = accessRaw
	return s.userID, s.sessionID, s.err
}

func protectedRouter(v SessionValidator) *gin.Engine {
	router := gin.New()
	router.Use(RequireSession(v))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetInt64("user_id"),
			"session_id": c.GetInt64("session_id"),
		})
	})
	return router
}

func TestRequireSession_ValidToken(t *testing.T) {
	validator := &stubValidator{userID: 42, sessionID: 7}
	router := protectedRouter(validator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-access-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "some-access-token", validator.gotToken)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), "7")
}

func TestRequireSession_RejectedToken(t *testing.T) {
	validator := &stubValidator{err: errors.New("session blocked")}
	router := protectedRouter(validator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestRequireSession_NoHeader(t *testing.T) {
	router := protectedRouter(&stubValidator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_HEADER_MISSING")
}

func TestRequireSession_WrongFormat(t *testing.T) {
	router := protectedRouter(&stubValidator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic dGVzdA==")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
}
