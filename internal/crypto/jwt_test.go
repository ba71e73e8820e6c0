package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	token, expiresAt, err := ti.Issue("alice@x.com", true)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty string")
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("Issue() expiry %v is not in the future", expiresAt)
	}

	claims, err := ti.Parse(token)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if claims.Subject != "alice@x.com" {
		t.Errorf("Parse() Subject = %q, want %q", claims.Subject, "alice@x.com")
	}
	if !claims.IsAdmin {
		t.Error("Parse() IsAdmin = false, want true")
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := NewTokenIssuer("test-secret", time.Hour).Parse("not-a-valid-token")
	if err != ErrInvalidToken {
		t.Errorf("Parse() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("correct-secret", time.Hour).Issue("alice@x.com", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	if _, err := NewTokenIssuer("wrong-secret", time.Hour).Parse(token); err == nil {
		t.Error("Parse() expected error for wrong secret")
	}
}

func TestParseTamperedPayload(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)
	token, _, err := ti.Issue("bob@x.com", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	// Keep the original signature but swap in a payload that claims admin.
	forged, _, err := ti.Issue("bob@x.com", true)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := ti.Parse(tampered); err == nil {
		t.Error("Parse() accepted a token with a modified payload")
	}
}

func TestParseExpired(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	ti.now = func() time.Time { return issuedAt }

	token, _, err := ti.Issue("alice@x.com", false)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	ti.now = time.Now
	if _, err := ti.Parse(token); err == nil {
		t.Error("Parse() expected error for expired token")
	}
}

func TestParseRejectsForeignClaims(t *testing.T) {
	secret := "test-secret"
	now := time.Now()

	tests := []struct {
		name   string
		claims Claims
	}{
		{
			name: "wrong issuer",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "a@x.com", Issuer: "someone-else", Audience: jwt.ClaimStrings{tokenAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "wrong audience",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "a@x.com", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{"other-api"},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
		{
			name: "no expiry",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject: "a@x.com", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{tokenAudience},
			}},
		},
		{
			name: "no subject",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{
				Issuer: tokenIssuer, Audience: jwt.ClaimStrings{tokenAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte(secret))
			if err != nil {
				t.Fatalf("SignedString() unexpected error: %v", err)
			}
			if _, err := NewTokenIssuer(secret, time.Hour).Parse(signed); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "a@x.com", Issuer: tokenIssuer, Audience: jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, IsAdmin: true}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	if _, err := NewTokenIssuer("test-secret", time.Hour).Parse(signed); err == nil {
		t.Error("Parse() accepted an unsigned token")
	}
}
