package auth

import (
	"testing"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
)

func newJWTManager() *JWTManager {
	return NewJWTManager(&config.Config{
		App: config.AppConfig{
			Name: "storefront-test",
		},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	jm := newJWTManager()

	token, err := jm.GenerateAccessToken(42, "user@example.com", true)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := jm.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want user@example.com", claims.Email)
	}
	if !claims.IsAdmin {
		t.Error("IsAdmin = false, want true")
	}
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	jm := newJWTManager()

	refresh, err := jm.GenerateRefreshToken(7, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := jm.ValidateAccessToken(refresh); err == nil {
		t.Error("ValidateAccessToken() accepted a refresh token")
	}
	if _, err := jm.ValidateRefreshToken(refresh); err != nil {
		t.Errorf("ValidateRefreshToken() error = %v", err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	jm := newJWTManager()

	token, err := jm.GenerateAccessToken(1, "user@example.com", false)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	other := NewJWTManager(&config.Config{
		JWT: config.JWTConfig{
			Secret:            "a-different-secret",
			AccessTokenExpiry: 15 * time.Minute,
		},
	})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted a token signed with another secret")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", ""},
		{"Basic abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractTokenFromHeader(tt.header); got != tt.want {
			t.Errorf("ExtractTokenFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
