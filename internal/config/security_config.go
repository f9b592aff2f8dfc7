package config

import "time"

type SecurityConfig interface {
	GetJWTSecret() string
	GetTokenExpiry() time.Duration
	GetCookieName() string
	GetCookieSecure() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "dev-only-secret")
}

func (Security) GetTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (Security) GetCookieName() string {
	return GetEnv("COOKIE_NAME", "token")
}

func (Security) GetCookieSecure() bool {
	return GetEnv("COOKIE_SECURE", "") == "true"
}
