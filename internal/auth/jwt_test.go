package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateAccessToken("user-123", "u@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %q", claims.Subject)
	}
	if claims.Email != "u@example.com" {
		t.Errorf("expected email to round-trip, got %q", claims.Email)
	}
}

func TestGenerateAccessToken_EmptyUserID(t *testing.T) {
	svc := NewJWTService("test-secret")
	_, err := svc.GenerateAccessToken("", "")
	if err != ErrEmptyUserID {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateAccessToken("user-123", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = NewJWTService("secret-b").ValidateToken(token)
	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewJWTService("test-secret")
	_, err := svc.ValidateToken("not.a.token")
	if err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	secret := "test-secret"

	// Issue a token that expired beyond the validation leeway.
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = NewJWTService(secret).ValidateToken(token)
	if err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateToken_WithinLeeway(t *testing.T) {
	secret := "test-secret"

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	// Expired 10s ago, but DefaultLeeway is 30s.
	if _, err := NewJWTService(secret).ValidateToken(token); err != nil {
		t.Errorf("expected token within leeway to validate, got %v", err)
	}
}

func TestValidateToken_RejectsWrongAlgorithm(t *testing.T) {
	// Token signed with "none" must never validate.
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = NewJWTService("test-secret").ValidateToken(token)
	if err == nil {
		t.Error("expected rejection of none-algorithm token")
	}
}

func TestKeyRotation(t *testing.T) {
	oldSvc := NewJWTService("old-secret")
	oldToken, err := oldSvc.GenerateAccessToken("user-123", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	rotated := NewJWTServiceWithRotation("new-secret", "old-secret")

	// Tokens signed with the previous secret still validate during rotation.
	claims, err := rotated.ValidateToken(oldToken)
	if err != nil {
		t.Fatalf("expected old-secret token to validate during rotation, got %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %q", claims.Subject)
	}

	// New tokens are signed with the current secret.
	newToken, err := rotated.GenerateAccessToken("user-456", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := NewJWTService("new-secret").ValidateToken(newToken); err != nil {
		t.Errorf("expected new token to be signed with current secret, got %v", err)
	}

	// Once rotation completes the old secret stops working.
	completed := NewJWTServiceWithRotation("new-secret", "")
	if _, err := completed.ValidateToken(oldToken); err == nil {
		t.Error("expected old-secret token to fail after rotation completes")
	}
}
