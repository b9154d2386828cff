package services

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthTokenRoundTrip(t *testing.T) {
	auth, err := NewAuthService(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	token, expiresAt, err := auth.GenerateToken("studio-pc")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if d := time.Until(expiresAt); d <= 0 || d > time.Hour {
		t.Errorf("expiresAt %v not within the next hour", expiresAt)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ServerName != "studio-pc" {
		t.Errorf("ServerName = %q, want studio-pc", claims.ServerName)
	}
}

func TestAuthRejectsForeignToken(t *testing.T) {
	a, _ := NewAuthService(testSecret, time.Hour, zap.NewNop())
	b, _ := NewAuthService(strings.Repeat("z", 32), time.Hour, zap.NewNop())

	token, _, err := b.GenerateToken("other")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := a.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	auth, _ := NewAuthService(testSecret, time.Minute, zap.NewNop())
	issued := time.Now().Add(-time.Hour)
	auth.now = func() time.Time { return issued }

	token, _, err := auth.GenerateToken("studio")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	auth.now = time.Now
	if _, err := auth.ValidateToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestAuthRejectsShortSecret(t *testing.T) {
	if _, err := NewAuthService("too-short", time.Hour, zap.NewNop()); err == nil {
		t.Fatal("expected error for short secret")
	}
}
