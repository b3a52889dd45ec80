package service

import (
	"strings"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("userID = %q, want user-42", userID)
	}
}

func TestJWTRejectsTampered(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ParseJWT(tampered); err == nil {
		t.Fatal("tampered token should not parse")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	if _, err := ParseJWT("not.a.token"); err == nil {
		t.Fatal("garbage should not parse")
	}
	if _, err := ParseJWT(strings.Repeat("a", 100)); err == nil {
		t.Fatal("garbage should not parse")
	}
}
