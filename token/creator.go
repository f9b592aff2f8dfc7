package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskhub/go-task-server/internal/config"
	"github.com/taskhub/go-task-server/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator handles session token creation
type Creator struct {
	config config.SecurityConfig
}

// NewCreator creates a new token creator
func NewCreator(cfg config.SecurityConfig) *Creator {
	return &Creator{
		config: cfg,
	}
}

// Create signs a session token for the user. The sessionID ties the
// token to one client session; jti allows individual tokens to be
// distinguished in logs.
func (c *Creator) Create(user *users.User, sessionID string) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"userId":    user.ID,                                     // Subject of the session
		"role":      string(user.Role),                           // Team role at login time
		"sessionId": sessionID,                                   // Client session identifier
		"iat":       now.Unix(),                                  // Issued At
		"exp":       now.Add(c.config.GetTokenExpiry()).Unix(),   // Expiry
		"jti":       uuid.New().String(),                         // Unique token ID
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.config.GetJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
