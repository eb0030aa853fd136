package security

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), time.Hour)

	tokenString, err := ti.GenerateToken("u-1", "alice", "doctor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := jwtauth.VerifyToken(ti.Auth, tokenString)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	id, err := GetUserIDFromClaims(claims)
	if err != nil || id != "u-1" {
		t.Errorf("user id = %q, %v", id, err)
	}
	role, err := GetUserRoleFromClaims(claims)
	if err != nil || role != "doctor" {
		t.Errorf("role = %q, %v", role, err)
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	issuer := NewTokenIssuer([]byte("one"), time.Hour)
	other := NewTokenIssuer([]byte("two"), time.Hour)

	tokenString, err := issuer.GenerateToken("u-1", "alice", "doctor")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jwtauth.VerifyToken(other.Auth, tokenString); err == nil {
		t.Fatal("token signed with another key must not verify")
	}
}

func TestClaimsHelpersRejectMissing(t *testing.T) {
	if _, err := GetUserIDFromClaims(map[string]interface{}{}); err == nil {
		t.Error("missing userID should fail")
	}
	if _, err := GetUserRoleFromClaims(map[string]interface{}{"role": 7}); err == nil {
		t.Error("non-string role should fail")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("secret", hash) {
		t.Error("matching password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
