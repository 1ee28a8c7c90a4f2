package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveAdmin(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected admin claims in context")
		}
		assert.Equal(t, "praxis-team", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminJWTMissingSecret(t *testing.T) {
	rec, called := serveAdmin(t, "", "Bearer whatever")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"admin auth disabled"}`, rec.Body.String())
}

func TestAdminJWTMissingHeader(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "")
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveAdmin(t, "secret", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTInvalidToken(t *testing.T) {
	token, err := IssueAdminToken("wrong", "praxis-team", RoleAdmin, time.Minute)
	require.NoError(t, err)
	rec, called := serveAdmin(t, "secret", "Bearer "+token)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTExpiredToken(t *testing.T) {
	token, err := IssueAdminToken("secret", "praxis-team", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	rec, _ := serveAdmin(t, "secret", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsTokenWithoutExpiry(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "praxis-team"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	rec, _ := serveAdmin(t, "secret", "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRejectsUnknownRole(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "praxis-team",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	rec, _ := serveAdmin(t, "secret", "Bearer "+signed)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminJWTValidToken(t *testing.T) {
	token, err := IssueAdminToken("secret", "praxis-team", RoleStaff, 5*time.Minute)
	require.NoError(t, err)
	rec, called := serveAdmin(t, "secret", "Bearer "+token)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueAdminTokenValidation(t *testing.T) {
	_, err := IssueAdminToken("", "x", RoleAdmin, time.Minute)
	assert.Error(t, err)
	_, err = IssueAdminToken("secret", "x", "root", time.Minute)
	assert.Error(t, err)
}
