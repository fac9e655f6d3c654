package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/carbon-tracker/internal/auth"
	"github.com/ukydev/carbon-tracker/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	DeviceContextKey contextKey = "device"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
	required    bool
}

// NewAuthMiddleware creates a new authentication middleware.
// When required is false every caller is treated as the anonymous device.
func NewAuthMiddleware(authService *auth.Service, required bool) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		required:    required,
	}
}

// Authenticate validates JWT tokens and adds the device to the request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.required {
			claims := &models.Claims{DeviceID: models.AnonymousDevice}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), DeviceContextKey, claims)))
			return
		}

		// Skip authentication for certain endpoints
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), DeviceContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDeviceFromContext extracts device claims from request context
func GetDeviceFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(DeviceContextKey).(*models.Claims)
	return claims, ok
}

// DeviceID returns the calling device, or the anonymous device.
func DeviceID(ctx context.Context) string {
	if claims, ok := GetDeviceFromContext(ctx); ok && claims.DeviceID != "" {
		return claims.DeviceID
	}
	return models.AnonymousDevice
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/api/auth/token",
		"/health",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware limits requests per device, or per IP for unauthenticated callers.
type RateLimitMiddleware struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// RateLimit allows at most maxRequests per window for each caller.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(callerKey(r), maxRequests, window) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(key string, maxRequests int, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	windowStart := now.Add(-window)

	valid := m.requests[key][:0]
	for _, ts := range m.requests[key] {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	if len(valid) >= maxRequests {
		m.requests[key] = valid
		return false
	}
	m.requests[key] = append(valid, now)
	return true
}

func callerKey(r *http.Request) string {
	if claims, ok := GetDeviceFromContext(r.Context()); ok && claims.DeviceID != models.AnonymousDevice {
		return "device:" + claims.DeviceID
	}
	return "ip:" + getClientIP(r)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to remote address
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
