package service

import (
	"context"
	"log"
	"strings"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"
	"leave_portal/internal/platform/leaveapi"
)

type AuthService struct {
	client *leaveapi.Client
	boards *BoardCache
}

func NewAuthService(client *leaveapi.Client, boards *BoardCache) *AuthService {
	return &AuthService{client: client, boards: boards}
}

type LoginRequest struct {
	Email    string
	Password string
}

type SignupRequest struct {
	Username string
	Email    string
	Password string
}

// Login signs the browser in. A rejected attempt clears whatever session the
// browser had so no stale token survives it.
func (s *AuthService) Login(ctx context.Context, sess *repository.ScopedSession, req LoginRequest) (*model.User, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, common.NewAPIError(common.ErrAuth, 0, "Email and password are required", nil)
	}

	res, err := s.client.Bind(sess).Login(ctx, strings.TrimSpace(req.Email), req.Password)
	s.boards.Drop(sess.SID())
	if err != nil {
		if clearErr := sess.Clear(ctx); clearErr != nil {
			log.Printf("ERROR: Failed to clear session after rejected login: %v", clearErr)
		}
		return nil, err
	}
	log.Printf("INFO: User %s signed in with role %s", res.User.Username, res.User.Role)
	return res.User, nil
}

// Signup registers an account and, only once that succeeded, signs it in.
func (s *AuthService) Signup(ctx context.Context, sess *repository.ScopedSession, req SignupRequest) (*model.User, error) {
	var missing []common.FieldError
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, common.FieldError{Field: "username", Message: "required"})
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, common.FieldError{Field: "email", Message: "required"})
	}
	if req.Password == "" {
		missing = append(missing, common.FieldError{Field: "password", Message: "required"})
	}
	if len(missing) > 0 {
		return nil, common.NewAPIError(common.ErrValidation, 0, "", missing)
	}

	if _, err := s.client.Bind(sess).Register(ctx, strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password); err != nil {
		return nil, err
	}
	return s.Login(ctx, sess, LoginRequest{Email: req.Email, Password: req.Password})
}

func (s *AuthService) Logout(ctx context.Context, sess *repository.ScopedSession) error {
	s.boards.Drop(sess.SID())
	return sess.Clear(ctx)
}

// CurrentUser returns the signed-in user, or nil when the browser has no valid session.
func (s *AuthService) CurrentUser(ctx context.Context, sess *repository.ScopedSession) (*model.User, error) {
	current, err := sess.Load(ctx)
	if err != nil {
		return nil, err
	}
	if current.Empty() {
		return nil, nil
	}
	return current.User, nil
}
