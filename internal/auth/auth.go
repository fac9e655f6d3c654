package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/carbon-tracker/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token expired")
	ErrInvalidPasscode = errors.New("invalid passcode")
	ErrInvalidDeviceID = errors.New("invalid device id")
)

// Service issues and validates device tokens
type Service struct {
	jwtSecret    []byte
	tokenExp     time.Duration
	passcodeHash []byte
}

// NewService creates a new authentication service.
// An empty passcodeHash means no device can obtain a token.
func NewService(secret string, tokenExp time.Duration, passcodeHash string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if tokenExp <= 0 {
		tokenExp = 24 * time.Hour
	}
	return &Service{
		jwtSecret:    []byte(secret),
		tokenExp:     tokenExp,
		passcodeHash: []byte(passcodeHash),
	}, nil
}

// HashPasscode hashes a passcode using bcrypt
func HashPasscode(passcode string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(bytes), nil
}

// CheckPasscode checks a passcode against the configured hash
func (s *Service) CheckPasscode(passcode string) bool {
	if len(s.passcodeHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.passcodeHash, []byte(passcode)) == nil
}

// IssueToken checks the passcode and returns a signed token for the device.
func (s *Service) IssueToken(deviceID, passcode string) (string, time.Time, error) {
	if err := ValidateDeviceID(deviceID); err != nil {
		return "", time.Time{}, err
	}
	if !s.CheckPasscode(passcode) {
		return "", time.Time{}, ErrInvalidPasscode
	}
	return s.GenerateToken(deviceID)
}

// GenerateToken generates a JWT token for a device
func (s *Service) GenerateToken(deviceID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.tokenExp)
	claims := jwt.MapClaims{
		"device_id": deviceID,
		"exp":       exp.Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	deviceID, ok := claims["device_id"].(string)
	if !ok || deviceID == "" {
		return nil, ErrInvalidToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.Claims{DeviceID: deviceID, Exp: int64(exp)}, nil
}

// ValidateDeviceID validates device id format
func ValidateDeviceID(deviceID string) error {
	if len(deviceID) < 3 || len(deviceID) > 64 {
		return fmt.Errorf("%w: must be 3 to 64 characters", ErrInvalidDeviceID)
	}
	if deviceID == models.AnonymousDevice {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidDeviceID, deviceID)
	}
	return nil
}
