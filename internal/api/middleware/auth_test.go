package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantshop/internal/auth"
	"github.com/example/plantshop/internal/role"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key", 15*time.Minute, 7*24*time.Hour)
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthenticate_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService()
	mw := Authenticate(jwtService)

	token, _, err := jwtService.GenerateAccessToken("user-123", "test@example.com", role.Customer)
	require.NoError(t, err)

	var capturedClaims *auth.Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedClaims, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capturedClaims)
	assert.Equal(t, "user-123", capturedClaims.UserID)
	assert.Equal(t, "test@example.com", capturedClaims.Email)
	assert.Equal(t, role.Customer, capturedClaims.Role)
}

func TestAuthenticate_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	mw := Authenticate(jwtService)

	token, _, err := jwtService.GenerateAccessToken("user-456", "cookie@example.com", role.Admin)
	require.NoError(t, err)

	var capturedClaims *auth.Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedClaims, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capturedClaims)
	assert.Equal(t, "user-456", capturedClaims.UserID)
}

func TestAuthenticate_NoToken(t *testing.T) {
	mw := Authenticate(newTestJWTService())
	handler, called := okHandler()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
	assert.False(t, *called)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	mw := Authenticate(newTestJWTService())
	handler, called := okHandler()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
	assert.False(t, *called)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 1*time.Millisecond, 7*24*time.Hour)
	mw := Authenticate(jwtService)
	handler, called := okHandler()

	token, _, err := jwtService.GenerateAccessToken("user-123", "test@example.com", role.Customer)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func withClaims(req *http.Request, claims *auth.Claims) *http.Request {
	ctx := context.WithValue(req.Context(), UserContextKey, claims)
	return req.WithContext(ctx)
}

func TestRequireOperation(t *testing.T) {
	tests := []struct {
		name     string
		role     role.Role
		op       role.Operation
		wantCode int
	}{
		{"admin lists users", role.Admin, role.OpUsersList, http.StatusOK},
		{"customer cannot list users", role.Customer, role.OpUsersList, http.StatusForbidden},
		{"moderator creates product", role.Moderator, role.OpProductCreate, http.StatusOK},
		{"delivery cannot create product", role.Delivery, role.OpProductCreate, http.StatusForbidden},
		{"finance lists orders", role.Finance, role.OpOrdersList, http.StatusOK},
		{"production cannot list orders", role.Production, role.OpOrdersList, http.StatusForbidden},
		{"any role places order", role.Customer, role.OpOrderCreate, http.StatusOK},
		{"unknown role denied everywhere", role.Role("superuser"), role.OpOrderCreate, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := RequireOperation(tt.op)
			handler, called := okHandler()

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req = withClaims(req, &auth.Claims{UserID: "user-1", Role: tt.role})
			rec := httptest.NewRecorder()

			mw(handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, *called)
		})
	}
}

func TestRequireOperation_NoClaims(t *testing.T) {
	mw := RequireOperation(role.OpOrderCreate)
	handler, called := okHandler()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestGetUserID(t *testing.T) {
	claims := &auth.Claims{UserID: "user-9", Role: role.Customer}
	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	assert.Equal(t, "user-9", GetUserID(ctx))
	assert.Empty(t, GetUserID(context.Background()))
}
