package middleware

import (
	"context"
	"log"
	"net/http"

	"leave_portal/internal/common"
	"leave_portal/internal/common/security"
	"leave_portal/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const SessionIDCtxKey contextKey = "sid"

// BrowserSession resolves the browser session id from the portal cookie
// (verified earlier by jwtauth.Verify) and issues a new cookie when it is
// missing, expired or forged.
func BrowserSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			sid, err = security.GetSIDFromClaims(claims)
		}

		if sid == "" || err != nil {
			var tokenString string
			sid, tokenString, err = security.NewBrowserToken()
			if err != nil {
				log.Printf("ERROR: Failed to issue browser token: %v", err)
				common.RespondWithError(w, http.StatusInternalServerError, "Could not start a session")
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     security.CookieName,
				Value:    tokenString,
				Path:     "/",
				MaxAge:   int(config.AppConfig.CookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), SessionIDCtxKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to get the browser session id from context
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDCtxKey).(string)
	return sid, ok && sid != ""
}
