package handler

import (
	"net/http"

	"leave_portal/internal/app/service"
	"leave_portal/internal/common"
	"leave_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

// APIHandler is the JSON read API behind the dashboard widgets.
type APIHandler struct {
	employeeService *service.EmployeeService
	adminService    *service.AdminService
	sessions        *SessionHandler
	store           repository.SessionStore
}

func NewAPIHandler(es *service.EmployeeService, as *service.AdminService, sessions *SessionHandler, store repository.SessionStore) *APIHandler {
	return &APIHandler{employeeService: es, adminService: as, sessions: sessions, store: store}
}

func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.sessions.current) // GET /api/v1/session
	r.Get("/me/balances", h.myBalances)   // GET /api/v1/me/balances
	r.Get("/admin/stats", h.adminStats)   // GET /api/v1/admin/stats
}

type balancesResponse struct {
	Balances []service.CategoryBalance `json:"balances"`
	Error    string                    `json:"error,omitempty"`
}

func (h *APIHandler) myBalances(w http.ResponseWriter, r *http.Request) {
	dash, err := h.employeeService.Dashboard(r.Context(), scopedSession(r, h.store), "")
	if err != nil {
		common.RespondWithAPIError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, balancesResponse{Balances: dash.Balances, Error: dash.Error})
}

type statsResponse struct {
	Stats       service.LeaveStats `json:"stats"`
	MonthLabels [12]string         `json:"month_labels"`
	Error       string             `json:"error,omitempty"`
}

func (h *APIHandler) adminStats(w http.ResponseWriter, r *http.Request) {
	dash, err := h.adminService.Dashboard(r.Context(), scopedSession(r, h.store))
	if err != nil {
		common.RespondWithAPIError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, statsResponse{Stats: dash.Stats, MonthLabels: service.MonthLabels, Error: dash.Error})
}
