package security

import (
	"encoding/hex"
	"errors"
	"time"

	"leave_portal/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// CookieName is where jwtauth.TokenFromCookie looks for the browser token.
const CookieName = "jwt"

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// NewBrowserToken issues the portal cookie token for a fresh browser session id.
func NewBrowserToken() (sid, tokenString string, err error) {
	sid = uuid.NewString()
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(config.AppConfig.CookieTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	_, tokenString, err = TokenAuth.Encode(claims)
	return sid, tokenString, err
}

func GetSIDFromClaims(claims jwt.MapClaims) (string, error) {
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}

// SessionKey derives the storage key for a browser session id so raw cookie ids are never persisted.
func SessionKey(sid string) string {
	sum := blake2b.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:])
}

// AccessTokenExpiry reads the exp claim of a backend access token without
// verifying it; the portal does not hold the backend's signing key.
func AccessTokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// SessionExpiry picks the instant a Session built around accessToken stops being valid.
func SessionExpiry(accessToken string, now time.Time, fallback time.Duration) time.Time {
	if exp, ok := AccessTokenExpiry(accessToken); ok {
		return exp
	}
	return now.Add(fallback)
}
