package mindflow

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenCookie is the cookie carrying the signed session token.
const TokenCookie = "token"

// userIDKey is the echo context key the auth guard stores the verified
// user id under.
const userIDKey = "userID"

// ErrInvalidToken is returned by Verify for any token that was not produced
// by Sign with the current secret: bad signature, malformed input, wrong
// signing method, or expired claims.
var ErrInvalidToken = errors.New("mindflow: invalid token")

// HashPassword derives a bcrypt digest from a plaintext password. Each call
// salts independently, so equal inputs produce different digests.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored digest. A mismatch
// is a false return, never an error.
func CheckPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// TokenCodec signs and verifies the self-contained session tokens held by
// admin clients. Tokens carry the user id and issue time; with a zero TTL
// they never expire and stay valid until the secret rotates.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec builds a codec around a shared HMAC secret. ttl of zero
// disables expiry.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

type tokenClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Sign produces a compact HS256 token for the given user id. Any change to
// the header or payload invalidates the signature.
func (tc *TokenCodec) Sign(userID int64) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if tc.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(tc.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
}

// Verify recomputes the signature over the received token and returns the
// embedded user id, or ErrInvalidToken.
func (tc *TokenCodec) Verify(token string) (int64, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tc.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// RequireAuth gates admin routes on the session cookie. A missing cookie
// redirects straight to the login page; an invalid cookie is cleared first.
// On success the verified user id is attached to the request context and the
// chain continues.
func RequireAuth(codec *TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusSeeOther, "/auth/login")
			}
			userID, err := codec.Verify(cookie.Value)
			if err != nil {
				clearTokenCookie(c)
				return c.Redirect(http.StatusSeeOther, "/auth/login")
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id attached by RequireAuth, or 0 on
// public routes.
func UserID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}

func setTokenCookie(c echo.Context, token string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
