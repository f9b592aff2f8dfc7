package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/go-task-server/internal/config"
	"github.com/taskhub/go-task-server/token"
	"github.com/taskhub/go-task-server/users"
)

const testSessionID = "session-1"

func testUser() *users.User {
	return &users.User{
		ID:    "user-1",
		Name:  "Jane Smith",
		Email: "jane.smith@example.com",
		Role:  users.RoleDeveloper,
	}
}

// TestCreateIntrospect_RoundTrip tests that a freshly created token
// introspects as active with the original claims
func TestCreateIntrospect_RoundTrip(t *testing.T) {
	cfg := config.Security{}
	creator := token.NewCreator(cfg)
	inspector := token.NewInspector(cfg)

	signed, err := creator.Create(testUser(), testSessionID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	introspection, err := inspector.Introspect(signed)
	require.NoError(t, err)
	require.True(t, introspection.Active)
	require.Equal(t, "user-1", introspection.UserID)
	require.Equal(t, users.RoleDeveloper, introspection.Role)
	require.Equal(t, testSessionID, introspection.SessionID)
	require.NotEmpty(t, introspection.JTI)
	require.Greater(t, introspection.Exp, introspection.Iat)
}

// TestIntrospect_ExpiredToken tests that an expired token is inactive
func TestIntrospect_ExpiredToken(t *testing.T) {
	cfg := config.Security{}
	creator := token.NewCreator(cfg)
	inspector := token.NewInspector(cfg)

	// Save original time function and restore after test
	originalNowTimeFunc := token.NowTimeFunc
	defer func() { token.NowTimeFunc = originalNowTimeFunc }()

	// Issue the token two hours in the past (expiry is one hour)
	pastTime := time.Now().Add(-2 * time.Hour)
	token.NowTimeFunc = func() time.Time { return pastTime }

	signed, err := creator.Create(testUser(), testSessionID)
	require.NoError(t, err)

	// Verify at the real current time
	token.NowTimeFunc = time.Now

	introspection, err := inspector.Introspect(signed)
	require.Error(t, err)
	require.False(t, introspection.Active)
}

// TestIntrospect_TamperedToken tests that a modified token is inactive
func TestIntrospect_TamperedToken(t *testing.T) {
	cfg := config.Security{}
	creator := token.NewCreator(cfg)
	inspector := token.NewInspector(cfg)

	signed, err := creator.Create(testUser(), testSessionID)
	require.NoError(t, err)

	tampered := signed[:len(signed)-2] + "xx"

	introspection, err := inspector.Introspect(tampered)
	require.Error(t, err)
	require.False(t, introspection.Active)
}

// TestIntrospect_EmptyToken tests that an empty token is inactive
// without error
func TestIntrospect_EmptyToken(t *testing.T) {
	inspector := token.NewInspector(config.Security{})

	introspection, err := inspector.Introspect("   ")
	require.NoError(t, err)
	require.False(t, introspection.Active)
}

// TestIntrospect_GarbageToken tests that a non-JWT string is inactive
func TestIntrospect_GarbageToken(t *testing.T) {
	inspector := token.NewInspector(config.Security{})

	introspection, err := inspector.Introspect("not-a-jwt-at-all")
	require.Error(t, err)
	require.False(t, introspection.Active)
}
