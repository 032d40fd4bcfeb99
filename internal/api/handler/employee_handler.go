package handler

import (
	"net/http"

	"leave_portal/internal/api/views"
	"leave_portal/internal/app/service"
	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type EmployeeHandler struct {
	employeeService *service.EmployeeService
	store           repository.SessionStore
	views           *views.Renderer
}

func NewEmployeeHandler(es *service.EmployeeService, store repository.SessionStore, v *views.Renderer) *EmployeeHandler {
	return &EmployeeHandler{employeeService: es, store: store, views: v}
}

func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.dashboard)         // GET /employee?type=sick
	r.Post("/leaves", h.applyLeave) // POST /employee/leaves
}

func (h *EmployeeHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.employeeService.Dashboard(r.Context(), scopedSession(r, h.store), r.URL.Query().Get("type"))
	if err != nil {
		if !redirectForAccess(w, r, err) {
			common.RespondWithError(w, common.HTTPStatusFromError(err), common.Message(err))
		}
		return
	}

	page := views.Page{Title: "Employee Dashboard", User: dash.User, Error: dash.Error, Employee: dash, Form: map[string]string{}}
	if r.URL.Query().Get("submitted") != "" {
		page.Notice = "Leave request submitted successfully"
	}
	h.views.Render(w, http.StatusOK, views.PageEmployee, page)
}

func (h *EmployeeHandler) applyLeave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	sess := scopedSession(r, h.store)
	req := model.LeaveRequest{
		LeaveType: r.PostFormValue("leave_type"),
		StartDate: r.PostFormValue("start_date"),
		EndDate:   r.PostFormValue("end_date"),
		Reason:    r.PostFormValue("reason"),
	}

	_, applyErr := h.employeeService.Apply(r.Context(), sess, req)
	if applyErr == nil {
		http.Redirect(w, r, "/employee?submitted=1", http.StatusSeeOther)
		return
	}
	if redirectForAccess(w, r, applyErr) {
		return
	}

	// Re-render with the form still filled in so the user can correct it.
	dash, err := h.employeeService.Dashboard(r.Context(), sess, "")
	if err != nil {
		if !redirectForAccess(w, r, err) {
			common.RespondWithError(w, common.HTTPStatusFromError(applyErr), common.Message(applyErr))
		}
		return
	}
	h.views.Render(w, common.HTTPStatusFromError(applyErr), views.PageEmployee, views.Page{
		Title:    "Employee Dashboard",
		User:     dash.User,
		Error:    common.Message(applyErr),
		Employee: dash,
		Form:     formValues(r, "leave_type", "start_date", "end_date", "reason"),
	})
}
