package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"leave_portal/internal/app/service"
	"leave_portal/internal/domain/model"
)

//go:embed templates/*.html
var files embed.FS

const (
	PageLogin    = "login"
	PageEmployee = "employee"
	PageAdmin    = "admin"
)

// Page is what every template receives.
type Page struct {
	Title    string
	User     *model.User
	Notice   string
	Error    string
	Form     map[string]string
	Employee *service.EmployeeDashboard
	Admin    *service.AdminDashboard
	Register bool
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatDate": model.FormatDate,
	"statusClass": func(s model.LeaveStatus) string {
		switch {
		case s.Is(model.LeaveStatusApproved):
			return "success"
		case s.Is(model.LeaveStatusRejected):
			return "danger"
		default:
			return "secondary"
		}
	},
	"isPending": func(s model.LeaveStatus) bool { return s.Is(model.LeaveStatusPending) },
	"month":     func(i int) string { return service.MonthLabels[i] },
	"lines":     func(s string) []string { return strings.Split(s, "\n") },
}

func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageLogin, PageEmployee, PageAdmin} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never leaves
// a half-written response.
func (v *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) {
	t, ok := v.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("ERROR: Rendering %s page: %v", page, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
