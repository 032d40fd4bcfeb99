package handler

import (
	"net/http"
	"strconv"

	"leave_portal/internal/api/views"
	"leave_portal/internal/app/service"
	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	adminService *service.AdminService
	store        repository.SessionStore
	views        *views.Renderer
}

func NewAdminHandler(as *service.AdminService, store repository.SessionStore, v *views.Renderer) *AdminHandler {
	return &AdminHandler{adminService: as, store: store, views: v}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.dashboard)                           // GET /admin
	r.Post("/leaves/{leaveID}/status", h.decideLeave) // POST /admin/leaves/42/status
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, nil)
}

func (h *AdminHandler) decideLeave(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "leaveID"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid leave id")
		return
	}
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	status := model.LeaveStatus(r.PostFormValue("status"))

	if _, err := h.adminService.Decide(r.Context(), scopedSession(r, h.store), id, status); err != nil {
		if redirectForAccess(w, r, err) {
			return
		}
		h.render(w, r, common.HTTPStatusFromError(err), err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// render shows the dashboard; actionErr, when set, is reported above any fetch error.
func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, status int, actionErr error) {
	dash, err := h.adminService.Dashboard(r.Context(), scopedSession(r, h.store))
	if err != nil {
		if !redirectForAccess(w, r, err) {
			common.RespondWithError(w, common.HTTPStatusFromError(err), common.Message(err))
		}
		return
	}
	msg := dash.Error
	if actionErr != nil {
		msg = common.Message(actionErr)
		if dash.Error != "" {
			msg += "\n" + dash.Error
		}
	}
	h.views.Render(w, status, views.PageAdmin, views.Page{
		Title: "Admin Dashboard",
		User:  dash.User,
		Error: msg,
		Admin: dash,
		Form:  map[string]string{},
	})
}
