package utils

import (
	"os"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(1, "bob", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pw1234" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "pw1234") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenBlacklist(t *testing.T) {
	token, _ := GenerateToken(7, "carol", time.Hour)
	if IsTokenBlacklisted(token) {
		t.Fatal("fresh token already blacklisted")
	}
	BlacklistToken(token, time.Now().Add(time.Hour))
	if !IsTokenBlacklisted(token) {
		t.Fatal("blacklisted token reported usable")
	}
}
