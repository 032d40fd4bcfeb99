package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"
	"leave_portal/internal/platform/leaveapi"
)

// fakeBackend is an in-memory stand-in for the leave backend.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]fakeUser // by email
	leaves   []model.LeaveRecord
	failList bool
	hits     int
}

type fakeUser struct {
	ID       int
	Username string
	Password string
	Role     string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *leaveapi.Client) {
	t.Helper()
	fb := &fakeBackend{users: make(map[string]fakeUser)}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return fb, leaveapi.NewClient(srv.URL, srv.Client(), time.Hour)
}

func (fb *fakeBackend) detail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.hits++

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/register":
		var body struct{ Username, Email, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := fb.users[body.Email]; ok {
			fb.detail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		role := model.RoleEmployee
		if strings.HasPrefix(body.Username, "admin") {
			role = model.RoleAdmin
		}
		u := fakeUser{ID: len(fb.users) + 1, Username: body.Username, Password: body.Password, Role: role}
		fb.users[body.Email] = u
		json.NewEncoder(w).Encode(model.User{ID: u.ID, Username: u.Username, Email: body.Email, Role: u.Role})

	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		r.ParseForm()
		u, ok := fb.users[r.PostForm.Get("username")]
		if !ok || u.Password != r.PostForm.Get("password") {
			fb.detail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-" + u.Username,
			"token_type":   "bearer",
			"user":         map[string]interface{}{"id": u.ID, "username": u.Username, "role": u.Role},
		})

	case r.URL.Path == "/leaves/me" || (r.Method == http.MethodGet && r.URL.Path == "/leaves/"):
		if fb.failList {
			fb.detail(w, http.StatusInternalServerError, "database unavailable")
			return
		}
		json.NewEncoder(w).Encode(fb.leaves)

	case r.Method == http.MethodPost && r.URL.Path == "/leaves/":
		var req model.LeaveRequest
		json.NewDecoder(r.Body).Decode(&req)
		rec := model.LeaveRecord{
			ID:        len(fb.leaves) + 1,
			LeaveType: req.LeaveType,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Reason:    req.Reason,
			Status:    model.LeaveStatusPending,
		}
		fb.leaves = append(fb.leaves, rec)
		json.NewEncoder(w).Encode(rec)

	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/status"):
		id, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/leaves/"), "/status"))
		for i := range fb.leaves {
			if fb.leaves[i].ID == id {
				fb.leaves[i].Status = model.LeaveStatus(r.URL.Query().Get("status"))
				json.NewEncoder(w).Encode(fb.leaves[i])
				return
			}
		}
		fb.detail(w, http.StatusNotFound, "Leave not found")

	default:
		http.NotFound(w, r)
	}
}

func (fb *fakeBackend) addUser(email, username, password, role string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.users[email] = fakeUser{ID: len(fb.users) + 1, Username: username, Password: password, Role: role}
}

func (fb *fakeBackend) setLeaves(records ...model.LeaveRecord) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.leaves = records
}

func (fb *fakeBackend) setFailList(fail bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failList = fail
}

func (fb *fakeBackend) requestCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.hits
}

func newScopedSession() *repository.ScopedSession {
	return repository.Scope(repository.NewMemorySessionStore(), "browser-1")
}
