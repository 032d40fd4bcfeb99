package handler

import (
	"errors"
	"net/http"
	"net/url"

	"leave_portal/internal/api/middleware"
	"leave_portal/internal/common"
	"leave_portal/internal/domain/repository"
)

// scopedSession binds store to the browser making r. BrowserSession always
// sets the id, so a missing one is a wiring bug.
func scopedSession(r *http.Request, store repository.SessionStore) *repository.ScopedSession {
	sid, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		panic("handler: browser session middleware not installed")
	}
	return repository.Scope(store, sid)
}

// redirectForAccess sends signed-out or wrong-role visitors to the login
// page and reports whether it did.
func redirectForAccess(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, common.ErrAuth):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return true
	case errors.Is(err, common.ErrForbidden):
		http.Redirect(w, r, "/login?notice="+url.QueryEscape(common.Message(err)), http.StatusSeeOther)
		return true
	}
	return false
}

func formValues(r *http.Request, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = r.PostFormValue(k)
	}
	return out
}
