package handler

import (
	"log"
	"net/http"

	"leave_portal/internal/api/views"
	"leave_portal/internal/app/service"
	"leave_portal/internal/common"
	"leave_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	store       repository.SessionStore
	views       *views.Renderer
}

func NewAuthHandler(authService *service.AuthService, store repository.SessionStore, v *views.Renderer) *AuthHandler {
	return &AuthHandler{authService: authService, store: store, views: v}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Post("/register", h.signup)
	r.Post("/logout", h.logout)
}

func (h *AuthHandler) home(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), scopedSession(r, h.store))
	if err != nil || user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, user.HomePath(), http.StatusSeeOther)
}

func (h *AuthHandler) loginPage(w http.ResponseWriter, r *http.Request) {
	notice := r.URL.Query().Get("notice")
	if notice == "" {
		user, err := h.authService.CurrentUser(r.Context(), scopedSession(r, h.store))
		if err == nil && user != nil {
			http.Redirect(w, r, user.HomePath(), http.StatusSeeOther)
			return
		}
	}
	register := r.URL.Query().Get("mode") == "register"
	h.views.Render(w, http.StatusOK, views.PageLogin, views.Page{
		Title:    "Login",
		Notice:   notice,
		Form:     map[string]string{},
		Register: register,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	req := service.LoginRequest{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}

	user, err := h.authService.Login(r.Context(), scopedSession(r, h.store), req)
	if err != nil {
		h.views.Render(w, common.HTTPStatusFromError(err), views.PageLogin, views.Page{
			Title: "Login",
			Error: common.Message(err),
			Form:  formValues(r, "email"),
		})
		return
	}
	http.Redirect(w, r, user.HomePath(), http.StatusSeeOther)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	req := service.SignupRequest{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.authService.Signup(r.Context(), scopedSession(r, h.store), req)
	if err != nil {
		h.views.Render(w, common.HTTPStatusFromError(err), views.PageLogin, views.Page{
			Title:    "Register",
			Error:    common.Message(err),
			Form:     formValues(r, "username", "email"),
			Register: true,
		})
		return
	}
	http.Redirect(w, r, user.HomePath(), http.StatusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), scopedSession(r, h.store)); err != nil {
		log.Printf("ERROR: Logout failed: %v", err)
		common.RespondWithError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
