package leaveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leave_portal/internal/common"
	"leave_portal/internal/common/security"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/platform/metrics"
)

const maxBodyBytes = 1 << 20

// SessionStore is the slice of the session store the gateway needs: it reads
// the bearer token and, on login only, writes the new Session.
type SessionStore interface {
	Load(ctx context.Context) (model.Session, error)
	Save(ctx context.Context, s model.Session) error
}

// Client talks to the external leave backend. It is safe for concurrent use
// and holds no per-user state; Bind attaches a browser's session.
type Client struct {
	baseURL    string
	http       *http.Client
	sessionTTL time.Duration
	now        func() time.Time
}

// NewClient builds a client for baseURL. sessionTTL bounds sessions whose
// access token carries no exp claim.
func NewClient(baseURL string, httpClient *http.Client, sessionTTL time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpClient,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Gateway is a Client bound to one browser's session.
type Gateway struct {
	c     *Client
	store SessionStore
}

func (c *Client) Bind(store SessionStore) *Gateway {
	return &Gateway{c: c, store: store}
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token and, on success only,
// stores the resulting Session. The stored user keeps the e-mail typed at login.
func (g *Gateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op, fallback = "login", "Login failed"

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	req, err := g.c.newRequest(ctx, http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transportError(common.ErrAuth, fallback, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := g.c.do(op, common.ErrAuth, fallback, req)
	if err != nil {
		return nil, err
	}

	var res LoginResult
	if err := decodeJSON(common.ErrAuth, fallback, body, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" || res.User == nil {
		return nil, common.NewAPIError(common.ErrAuth, http.StatusOK, fallback, nil)
	}

	user := &model.User{
		ID:       res.User.ID,
		Username: res.User.Username,
		Email:    email,
		Role:     res.User.Role,
	}
	res.User = user
	sess := model.Session{
		Token:     res.AccessToken,
		User:      user,
		ExpiresAt: security.SessionExpiry(res.AccessToken, g.c.now(), g.c.sessionTTL),
	}
	if err := g.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session after login: %w", err)
	}
	return &res, nil
}

// Register creates an account. It does not sign the user in.
func (g *Gateway) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	const op, fallback = "register", "Registration failed"

	req, err := g.c.newJSONRequest(ctx, http.MethodPost, "/auth/register", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, transportError(common.ErrValidation, fallback, err)
	}
	body, err := g.c.do(op, common.ErrValidation, fallback, req)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := decodeJSON(common.ErrValidation, fallback, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ApplyLeave submits a leave request; dates are sent exactly as given.
func (g *Gateway) ApplyLeave(ctx context.Context, leave model.LeaveRequest) (*model.LeaveRecord, error) {
	const op, fallback = "apply_leave", "Failed to apply for leave"

	token, err := g.token(ctx, op, "User not logged in")
	if err != nil {
		return nil, err
	}
	req, err := g.c.newJSONRequest(ctx, http.MethodPost, "/leaves/", leave)
	if err != nil {
		return nil, transportError(common.ErrValidation, fallback, err)
	}
	setBearer(req, token)

	body, err := g.c.do(op, common.ErrValidation, fallback, req)
	if err != nil {
		return nil, err
	}
	var rec model.LeaveRecord
	if err := decodeJSON(common.ErrValidation, fallback, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchMyLeaves lists the caller's own leave records in backend order.
func (g *Gateway) FetchMyLeaves(ctx context.Context) ([]model.LeaveRecord, error) {
	return g.list(ctx, "fetch_my_leaves", "/leaves/me", "User not logged in", "Failed to fetch your leaves")
}

// GetAllLeaves lists every employee's leave records (admin only).
func (g *Gateway) GetAllLeaves(ctx context.Context) ([]model.LeaveRecord, error) {
	return g.list(ctx, "get_all_leaves", "/leaves/", "Admin not logged in", "Failed to fetch leave requests")
}

// SetLeaveStatus approves or rejects a leave request (admin only).
func (g *Gateway) SetLeaveStatus(ctx context.Context, id int, status model.LeaveStatus) (*model.LeaveRecord, error) {
	const op, fallback = "set_leave_status", "Failed to update leave status"

	if !status.Decision() {
		return nil, common.NewAPIError(common.ErrValidation, 0, fmt.Sprintf("Invalid status %q", status), nil)
	}
	token, err := g.token(ctx, op, "Admin not logged in")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("status", string(status))
	path := "/leaves/" + strconv.Itoa(id) + "/status?" + q.Encode()
	req, err := g.c.newRequest(ctx, http.MethodPut, path, nil)
	if err != nil {
		return nil, transportError(common.ErrMutation, fallback, err)
	}
	setBearer(req, token)

	body, err := g.c.do(op, common.ErrMutation, fallback, req)
	if err != nil {
		return nil, err
	}
	var rec model.LeaveRecord
	if err := decodeJSON(common.ErrMutation, fallback, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (g *Gateway) list(ctx context.Context, op, path, notLoggedIn, fallback string) ([]model.LeaveRecord, error) {
	token, err := g.token(ctx, op, notLoggedIn)
	if err != nil {
		return nil, err
	}
	req, err := g.c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, transportError(common.ErrFetch, fallback, err)
	}
	setBearer(req, token)

	body, err := g.c.do(op, common.ErrFetch, fallback, req)
	if err != nil {
		return nil, err
	}
	records := []model.LeaveRecord{}
	if err := decodeJSON(common.ErrFetch, fallback, body, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.LeaveRecord{}
	}
	return records, nil
}

// token returns the stored bearer token, failing with ErrAuth before any
// network traffic when the browser has no valid session.
func (g *Gateway) token(ctx context.Context, op, notLoggedIn string) (string, error) {
	sess, err := g.store.Load(ctx)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "no_token").Inc()
		e := common.NewAPIError(common.ErrAuth, 0, notLoggedIn, nil)
		e.Err = err
		return "", e
	}
	if !sess.Valid(g.c.now()) {
		metrics.BackendRequestsTotal.WithLabelValues(op, "no_token").Inc()
		return "", common.NewAPIError(common.ErrAuth, 0, notLoggedIn, nil)
	}
	return sess.Token, nil
}

func setBearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and returns the body of a 2xx response. Every other outcome is
// normalized into an APIError of kind.
func (c *Client) do(op string, kind error, fallback string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		log.Printf("ERROR: Leave backend %s %s unreachable: %v", req.Method, req.URL.Path, err)
		return nil, transportError(kind, fallback, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return nil, transportError(kind, fallback, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.BackendRequestsTotal.WithLabelValues(op, "http_error").Inc()
		apiErr := decodeError(kind, resp.StatusCode, body, fallback)
		log.Printf("WARN: Leave backend %s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, apiErr.Message)
		return nil, apiErr
	}
	metrics.BackendRequestsTotal.WithLabelValues(op, "ok").Inc()
	return body, nil
}

func decodeJSON(kind error, fallback string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return transportError(kind, fallback, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
