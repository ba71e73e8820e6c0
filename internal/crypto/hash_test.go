package crypto

import (
	"strings"
	"testing"
)

// cheap parameters keep the suite fast; production uses DefaultHashParams.
func testHasher() *Hasher {
	return NewHasher(HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func TestHashDefaultParams(t *testing.T) {
	hash, err := NewHasher(DefaultHashParams()).Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash() expected 6 parts, got %d: %q", len(parts), hash)
	}
	if parts[1] != "argon2id" {
		t.Errorf("Hash() algorithm = %q, want %q", parts[1], "argon2id")
	}
	if parts[2] != "v=19" {
		t.Errorf("Hash() version = %q, want %q", parts[2], "v=19")
	}
	if parts[3] != "m=65536,t=3,p=2" {
		t.Errorf("Hash() params = %q, want %q", parts[3], "m=65536,t=3,p=2")
	}
}

func TestHasherRoundTrip(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	if hash == "secret" || strings.Contains(hash, "secret") {
		t.Fatalf("Hash() leaked the raw password: %q", hash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: "secret", want: true},
		{name: "wrong password", password: "Secret", want: false},
		{name: "empty password", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := h.Verify(tt.password, hash)
			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}
			if match != tt.want {
				t.Errorf("Verify() = %v, want %v", match, tt.want)
			}
		})
	}
}

func TestVerifyAcceptsHashesFromOtherParams(t *testing.T) {
	hash, err := testHasher().Hash("portable")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	match, err := NewHasher(DefaultHashParams()).Verify("portable", hash)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if !match {
		t.Error("Verify() returned false for a hash made with different params")
	}
}

func TestHashProducesDifferentHashes(t *testing.T) {
	h := testHasher()

	hash1, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	hash2, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for same password (salt should differ)")
	}
}

func TestVerifyInvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
		want error
	}{
		{name: "garbage", hash: "invalid-hash-format", want: ErrInvalidHashFormat},
		{name: "wrong algorithm", hash: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5", want: ErrInvalidHashFormat},
		{name: "wrong version", hash: "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$a2V5", want: ErrIncompatibleVersion},
		{name: "bad salt", hash: "$argon2id$v=19$m=1,t=1,p=1$!!!$a2V5", want: ErrInvalidHashFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testHasher().Verify("password", tt.hash)
			if err != tt.want {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}
