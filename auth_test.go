package mindflow

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("wrong password should not verify")
	}
	if CheckPassword("", hash) {
		t.Error("empty password should not verify")
	}

	// Per-call salting: same input, different digests.
	hash2, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == hash2 {
		t.Error("two hashes of the same input should differ")
	}
}

func TestTokenSignVerify(t *testing.T) {
	codec := NewTokenCodec("test-secret", 0)

	token, err := codec.Sign(42)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	userID, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

func TestTokenTamperingFails(t *testing.T) {
	codec := NewTokenCodec("test-secret", 0)

	token, err := codec.Sign(42)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// Flip one character in each segment of the token.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token should have three segments, got %d", len(parts))
	}
	for i := range parts {
		mangled := make([]string, 3)
		copy(mangled, parts)
		seg := []byte(mangled[i])
		if seg[0] == 'A' {
			seg[0] = 'B'
		} else {
			seg[0] = 'A'
		}
		mangled[i] = string(seg)
		if _, err := codec.Verify(strings.Join(mangled, ".")); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("tampered segment %d should fail verification, got %v", i, err)
		}
	}
}

func TestTokenMalformedAndWrongSecret(t *testing.T) {
	codec := NewTokenCodec("test-secret", 0)

	for _, bad := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Verify(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) should fail with ErrInvalidToken, got %v", bad, err)
		}
	}

	other := NewTokenCodec("different-secret", 0)
	token, _ := other.Sign(42)
	if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token from a different secret should fail, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Millisecond)

	token, err := codec.Sign(42)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token should fail verification, got %v", err)
	}
}

func guardedRequest(t *testing.T, codec *TokenCodec, cookie *http.Cookie) (*httptest.ResponseRecorder, *bool) {
	t.Helper()
	e := echo.New()
	invoked := false
	handler := func(c echo.Context) error {
		invoked = true
		return c.String(http.StatusOK, "ok")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireAuth(codec)(handler)(c); err != nil {
		t.Fatalf("guard returned error: %v", err)
	}
	return rec, &invoked
}

func TestAuthGuardNoCookie(t *testing.T) {
	codec := NewTokenCodec("test-secret", 0)

	rec, invoked := guardedRequest(t, codec, nil)
	if *invoked {
		t.Error("handler must not run without a cookie")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Errorf("redirect = %q, want /auth/login", loc)
	}
}

func TestAuthGuardTamperedCookie(t *testing.T) {
	codec := NewTokenCodec("test-secret", 0)
	token, _ := codec.Sign(42)

	rec, invoked := guardedRequest(t, codec, &http.Cookie{Name: TokenCookie, Value: token + "x"})
	if *invoked {
		t.Error("handler must not run with a tampered cookie")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Errorf("redirect = %q, want /auth/login", loc)
	}

	// The bad cookie must be cleared.
	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == TokenCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("tampered cookie should be expired in the response")
	}
}

func TestAuthGuardValidCookie(t *testing.T) {
	codec := NewTokenCodec("test-secret", 0)
	token, _ := codec.Sign(42)

	e := echo.New()
	var gotUserID int64
	handler := func(c echo.Context) error {
		gotUserID = UserID(c)
		return c.String(http.StatusOK, "ok")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireAuth(codec)(handler)(c); err != nil {
		t.Fatalf("guard returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != 42 {
		t.Errorf("context user id = %d, want 42", gotUserID)
	}
}
