package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/internal/model"
)

func newAuth(secret string) *Auth {
	return NewAuth(&config.Config{Auth: config.Auth{JWTSecret: secret}})
}

func TestParse(t *testing.T) {
	auth := newAuth("s3cret")

	token, err := auth.IssueToken(42, model.RoleStudent, time.Hour)
	require.NoError(t, err)
	viewer, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), viewer.UserID)
	assert.Equal(t, model.RoleStudent, viewer.Role)

	expired, err := auth.IssueToken(42, model.RoleStudent, -time.Minute)
	require.NoError(t, err)
	_, err = auth.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign, err := newAuth("other").IssueToken(42, model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = auth.Parse(foreign)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "GUEST",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = auth.Parse(badRole)
	assert.Error(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             string(model.RoleStudent),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7"},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = auth.Parse(noExpiry)
	assert.Error(t, err)

	_, err = newAuth("").Parse(token)
	assert.Error(t, err, "an unset secret rejects everything")
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := newAuth("s3cret")
	r := gin.New()
	r.GET("/admin", auth.Authenticate(), RequireRole(model.RoleAdmin), func(c *gin.Context) {
		viewer, _ := ViewerFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": viewer.UserID})
	})

	adminToken, err := auth.IssueToken(1, model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	studentToken, err := auth.IssueToken(100, model.RoleStudent, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + studentToken, want: http.StatusForbidden},
		{name: "admin", header: "bearer " + adminToken, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
