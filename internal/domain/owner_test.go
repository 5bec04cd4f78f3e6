package domain

import (
	"errors"
	"testing"
)

func TestOwnerKey_String(t *testing.T) {
	user := AuthenticatedOwner("42")
	if user.String() != "user:42" {
		t.Fatalf("unexpected key: %s", user.String())
	}

	anon := AnonymousOwner("session-abc")
	if anon.String() != "anon:session-abc" {
		t.Fatalf("unexpected key: %s", anon.String())
	}
}

func TestOwnerKey_IsAuthenticated(t *testing.T) {
	if !AuthenticatedOwner("42").IsAuthenticated() {
		t.Fatal("expected authenticated owner")
	}
	if AnonymousOwner("s").IsAuthenticated() {
		t.Fatal("expected anonymous owner")
	}
}

func TestOwnerKey_Validate(t *testing.T) {
	if err := AuthenticatedOwner("42").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AuthenticatedOwner("").Validate(); !errors.Is(err, ErrOwnerKeyInvalid) {
		t.Fatalf("expected ErrOwnerKeyInvalid, got %v", err)
	}
	if err := (OwnerKey{Kind: "robot", ID: "1"}).Validate(); !errors.Is(err, ErrOwnerKeyInvalid) {
		t.Fatalf("expected ErrOwnerKeyInvalid for unknown kind, got %v", err)
	}
}

func TestParseOwnerKey_RoundTrip(t *testing.T) {
	for _, owner := range []OwnerKey{AuthenticatedOwner("7"), AnonymousOwner("tok-1")} {
		parsed, err := ParseOwnerKey(owner.String())
		if err != nil {
			t.Fatalf("parse %s: %v", owner.String(), err)
		}
		if parsed != owner {
			t.Fatalf("round trip mismatch: %+v != %+v", parsed, owner)
		}
	}

	if _, err := ParseOwnerKey("garbage"); !errors.Is(err, ErrOwnerKeyInvalid) {
		t.Fatalf("expected ErrOwnerKeyInvalid, got %v", err)
	}
}
