package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
)

func newTestIssuer(secret string) *Issuer {
	return NewIssuer(config.JWTConfig{SecretKey: secret, ExpireHours: 1, Issuer: "storefront"})
}

func TestGenerateAndParse(t *testing.T) {
	issuer := newTestIssuer("test-secret-with-enough-length-000")
	token, expiresAt, err := issuer.Generate(42, " Vendor ")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry should be in the future")
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != 42 || claims.Role != constants.RoleVendor {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := newTestIssuer("secret-a-secret-a-secret-a-secret-a")
	other := newTestIssuer("secret-b-secret-b-secret-b-secret-b")
	token, _, err := other.Generate(1, constants.RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := issuer.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("token signed with another secret should be invalid, got %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := issuer.Generate(1, constants.RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	issuer.now = time.Now
	if _, err := issuer.Parse(expired); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired token should be invalid, got %v", err)
	}
}

func TestMissingSecret(t *testing.T) {
	issuer := newTestIssuer("")
	if _, _, err := issuer.Generate(1, ""); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
	if _, err := issuer.Parse("x"); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"admin":    constants.RoleAdmin,
		" VENDOR ": constants.RoleVendor,
		"":         constants.RoleCustomer,
		"root":     constants.RoleCustomer,
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Fatalf("NormalizeRole(%q) want %q got %q", in, want, got)
		}
	}
}
