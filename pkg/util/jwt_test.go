package util

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndParseJWT(t *testing.T) {
	token, claims, err := GenerateJWT(42, TokenTypeAccess, time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	parsed, err := ParseJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if parsed.UserID != 42 || parsed.TokenType != TokenTypeAccess {
		t.Errorf("unexpected claims: %+v", parsed)
	}
	if parsed.ID != claims.ID || parsed.ID == "" {
		t.Errorf("expected jti %q, got %q", claims.ID, parsed.ID)
	}
}

func TestParseJWT_Expired(t *testing.T) {
	token, _, err := GenerateJWT(1, TokenTypeAccess, -time.Minute, testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, testSecret); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, _, _ := GenerateJWT(1, TokenTypeAccess, time.Minute, testSecret)
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatal("expected signature check to fail")
	}
}

func TestParseTyped_RejectsOtherType(t *testing.T) {
	token, _, _ := GenerateJWT(1, TokenTypeAccess, time.Minute, testSecret)
	if _, err := ParseTyped(token, testSecret, TokenTypeRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestParseJWT_Garbage(t *testing.T) {
	if _, err := ParseJWT("not-a-token", testSecret); err == nil {
		t.Fatal("expected malformed token to fail")
	}
}

func TestExtractToken(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Token abc":  "",
		"Bearer a b": "",
		"Bearerabc":  "",
	}
	for header, want := range cases {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := ExtractToken(r); got != want {
			t.Errorf("ExtractToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = 4
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("s3cret!", hash) {
		t.Error("expected password to match")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected wrong password to fail")
	}
}
