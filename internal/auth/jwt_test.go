package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ada = Identity{ID: "user-123", Username: "ada", Email: "a@x.com"}

func TestNewJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	if manager == nil {
		t.Fatal("expected JWTManager to be created")
	}
	if manager.secretKey != "test-secret" {
		t.Errorf("expected secretKey 'test-secret', got '%s'", manager.secretKey)
	}
	if manager.tokenDuration != time.Hour {
		t.Errorf("expected tokenDuration 1h, got %v", manager.tokenDuration)
	}
}

func TestGenerateToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, expiresAt, err := manager.GenerateToken(ada)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if token == "" {
		t.Error("expected non-empty token")
	}

	expectedExpiry := time.Now().Add(time.Hour)
	if expiresAt.Before(expectedExpiry.Add(-time.Minute)) || expiresAt.After(expectedExpiry.Add(time.Minute)) {
		t.Errorf("expiry time not within expected range")
	}
}

func TestValidateToken_RecoversClaims(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, expiresAt, err := manager.GenerateToken(ada)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error validating token: %v", err)
	}

	if got := claims.Identity(); got != ada {
		t.Errorf("expected identity %+v, got %+v", ada, got)
	}
	if !claims.ExpiresAt.Time.Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("expected exp %v, got %v", expiresAt.Truncate(time.Second), claims.ExpiresAt.Time)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret-key", -time.Hour)

	token, _, err := manager.GenerateToken(ada)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = manager.ValidateToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateToken_ExpiresWithClock(t *testing.T) {
	manager := NewJWTManager("test-secret-key", 2*time.Hour)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issued }

	token, _, err := manager.GenerateToken(ada)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	manager.now = func() time.Time { return issued.Add(time.Hour + 59*time.Minute) }
	if _, err := manager.ValidateToken(token); err != nil {
		t.Fatalf("expected token to be valid before expiry: %v", err)
	}

	manager.now = func() time.Time { return issued.Add(2*time.Hour + time.Second) }
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestValidateToken_InvalidSignature(t *testing.T) {
	manager1 := NewJWTManager("secret-key-1", time.Hour)
	manager2 := NewJWTManager("secret-key-2", time.Hour)

	token, _, err := manager1.GenerateToken(ada)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	_, err = manager2.ValidateToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for token with wrong signature, got %v", err)
	}
}

func TestValidateToken_TamperedCharacter(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, _, err := manager.GenerateToken(ada)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	for i := 0; i < len(token); i++ {
		// The last character of a segment may only carry padding bits.
		if token[i] == '.' || i == len(token)-1 || token[i+1] == '.' {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		if _, err := manager.ValidateToken(tampered); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for tampering at %d, got %v", i, err)
		}
	}
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	claims := &Claims{
		UserID: ada.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build none token: %v", err)
	}
	if _, err := manager.ValidateToken(none); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected alg=none to be rejected, got %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("failed to build HS512 token: %v", err)
	}
	if _, err := manager.ValidateToken(hs512); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected HS512 to be rejected, got %v", err)
	}
}

func TestValidateToken_MissingExpiry(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: ada.ID}).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected token without exp to be rejected, got %v", err)
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)

	for _, token := range []string{"", "not-a-valid-token", "a.b.c", strings.Repeat(".", 2)} {
		if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}
