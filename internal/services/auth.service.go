package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultTokenExpiry = 90 * 24 * time.Hour
	minSecretLength    = 32
	secretKeyFile      = ".streamwatch-secret-key"
	tokenIssuer        = "streamwatch"
)

// AuthService issues and validates the JWTs that guard the live stream.
type AuthService struct {
	secretKey   string
	tokenExpiry time.Duration
	now         func() time.Time
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ServerName string `json:"server_name"`
	jwt.RegisteredClaims
}

// NewAuthService creates the service. An empty secretKey loads (or creates)
// a key persisted in the user's home directory so tokens survive restarts.
func NewAuthService(secretKey string, tokenExpiry time.Duration, logger *zap.Logger) (*AuthService, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		var err error
		secretKey, err = loadOrCreateSecret(logger)
		if err != nil {
			return nil, err
		}
	}
	if len(secretKey) < minSecretLength {
		return nil, fmt.Errorf("auth secret is %d bytes; at least %d are required for HMAC-SHA256", len(secretKey), minSecretLength)
	}
	if tokenExpiry <= 0 {
		tokenExpiry = defaultTokenExpiry
	}
	return &AuthService{secretKey: secretKey, tokenExpiry: tokenExpiry, now: time.Now}, nil
}

func loadOrCreateSecret(logger *zap.Logger) (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	keyFile := filepath.Join(dir, secretKeyFile)

	if data, err := os.ReadFile(keyFile); err == nil {
		if key := strings.TrimSpace(string(data)); len(key) >= minSecretLength {
			logger.Info("loaded persisted secret key", zap.String("path", keyFile))
			return key, nil
		}
	}

	randomBytes := make([]byte, minSecretLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	key := hex.EncodeToString(randomBytes)

	if err := os.WriteFile(keyFile, []byte(key), 0o600); err != nil {
		logger.Warn("could not persist secret key", zap.String("path", keyFile), zap.Error(err))
	} else {
		logger.Info("generated and persisted secret key", zap.String("path", keyFile))
	}
	return key, nil
}

// GenerateToken creates a new JWT token for serverName.
func (a *AuthService) GenerateToken(serverName string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenExpiry)

	claims := CustomClaims{
		ServerName: serverName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(a.secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken verifies and parses a JWT token
func (a *AuthService) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.secretKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
