package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/taskhub/go-task-server/internal/config"
	"github.com/taskhub/go-task-server/users"
)

// Introspection represents the decoded state of a session token. If
// Active is false the other fields may not be populated.
type Introspection struct {
	Active    bool           `json:"active"`              // Is the token valid and unexpired
	UserID    string         `json:"userId,omitempty"`    // User the token was issued to
	Role      users.RoleType `json:"role,omitempty"`      // Role claim at issue time
	SessionID string         `json:"sessionId,omitempty"` // Client session identifier
	Exp       int64          `json:"exp,omitempty"`       // Expiration
	Iat       int64          `json:"iat,omitempty"`       // Issued at time
	JTI       string         `json:"jti,omitempty"`       // Unique token ID
}

// Inspector handles session token verification
type Inspector struct {
	config config.SecurityConfig
}

// NewInspector creates a new token inspector
func NewInspector(cfg config.SecurityConfig) *Inspector {
	return &Inspector{
		config: cfg,
	}
}

// Introspect verifies a raw token's signature and expiry and extracts
// the session claims. Any failure yields an inactive introspection; the
// returned error exists for logging, callers must not distinguish
// failure causes on the wire.
func (i *Inspector) Introspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &Introspection{Active: false}, nil
	}

	token, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.config.GetJWTSecret()), nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))

	if err != nil || !token.Valid {
		return &Introspection{Active: false}, err
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return &Introspection{Active: false}, errors.New("error extracting claims from token")
	}

	userID, _ := claims["userId"].(string)
	role, _ := claims["role"].(string)
	sessionID, _ := claims["sessionId"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	jti, _ := claims["jti"].(string)

	if userID == "" {
		return &Introspection{Active: false}, errors.New("token missing user claim")
	}

	return &Introspection{
		Active:    true,
		UserID:    userID,
		Role:      users.RoleType(role),
		SessionID: sessionID,
		Exp:       int64(exp),
		Iat:       int64(iat),
		JTI:       jti,
	}, nil
}
