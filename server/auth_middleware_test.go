package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/go-task-server/internal/metrics"
	"github.com/taskhub/go-task-server/token"
)

// TestRequireAuth_MissingToken tests that a request without any
// credential is rejected with the uniform message and counted
func TestRequireAuth_MissingToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultMember())

	before := testutil.ToFloat64(metrics.AuthRejectionsTotal.WithLabelValues("auth"))
	rec := f.request(t, http.MethodGet, "/api/user/profile", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Not authorized. Try login again.", decodeStatus(t, rec).Message)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.AuthRejectionsTotal.WithLabelValues("auth")))
}

// TestRequireAuth_UniformRejection tests that a malformed token and a
// valid token for a deleted user produce byte-identical responses
func TestRequireAuth_UniformRejection(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createTestUser(t, defaultMember())
	validToken := f.login(t, testUserEmail, testUserPassword)

	malformed := f.request(t, http.MethodGet, "/api/user/profile", "garbage-token", nil)

	// Delete the account out from under a still-valid token
	require.NoError(t, f.userRepo.Delete(t.Context(), id))
	orphaned := f.request(t, http.MethodGet, "/api/user/profile", validToken, nil)

	require.Equal(t, http.StatusUnauthorized, malformed.Code)
	require.Equal(t, http.StatusUnauthorized, orphaned.Code)
	require.JSONEq(t, malformed.Body.String(), orphaned.Body.String())
}

// TestRequireAuth_ExpiredToken tests rejection of an expired credential
func TestRequireAuth_ExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultMember())

	originalNowTimeFunc := token.NowTimeFunc
	defer func() { token.NowTimeFunc = originalNowTimeFunc }()

	token.NowTimeFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired := f.login(t, testUserEmail, testUserPassword)
	token.NowTimeFunc = time.Now

	rec := f.request(t, http.MethodGet, "/api/user/profile", expired, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Not authorized. Try login again.", decodeStatus(t, rec).Message)
}

// TestRequireAuth_CookieBeforeHeader tests that the token cookie wins
// over the Authorization header when both are present
func TestRequireAuth_CookieBeforeHeader(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultMember())
	validToken := f.login(t, testUserEmail, testUserPassword)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: validToken})
	req.Header.Set("Authorization", "Bearer stale-header-token")

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	// The stale header would fail introspection; the cookie carries the
	// live credential and must be the one consulted.
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// TestRequireAuth_CookieOnly tests cookie-based authentication without
// any Authorization header
func TestRequireAuth_CookieOnly(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultMember())
	validToken := f.login(t, testUserEmail, testUserPassword)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: validToken})

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

// TestRequireAdmin_RejectsNonAdmin tests that the admin gate rejects a
// valid non-admin session while regular routes still accept it
func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultMember())
	memberToken := f.login(t, testUserEmail, testUserPassword)

	gated := f.request(t, http.MethodGet, "/api/user/get-team", memberToken, nil)
	open := f.request(t, http.MethodGet, "/api/user/profile", memberToken, nil)

	require.Equal(t, http.StatusUnauthorized, gated.Code)
	require.Equal(t, "Not authorized as admin. Try login as admin.", decodeStatus(t, gated).Message)
	require.Equal(t, http.StatusOK, open.Code, "same session stays valid for non-admin routes")
}

// TestRequireAdmin_AllowsAdmin tests the admin path through the gate
func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultAdmin())
	f.createTestUser(t, defaultMember())
	adminToken := f.login(t, testAdminEmail, testAdminPassword)

	rec := f.request(t, http.MethodGet, "/api/user/get-team", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var team []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	require.Len(t, team, 2)
}
