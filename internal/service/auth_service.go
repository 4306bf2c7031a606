package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// Session is an issued access token.
type Session struct {
	AccessToken string
	Token       *domain.Token
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	agents     repository.AgentRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	AgentRepo repository.AgentRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		agents:     deps.AgentRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterUser creates a requester account and signs it in.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password, department string) (*domain.User, *Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid"
	}
	if len(password) < auth.MinPasswordLength {
		details["password"] = "too short"
	}
	if len(details) > 0 {
		return nil, nil, apperrors.NewValidationError("invalid registration", details)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !repository.IsNotFound(err) {
		return nil, nil, writeError("registration", "user", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Department:   strings.TrimSpace(department),
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, writeError("registration", "user", err)
	}
	session, err := s.issue(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// LoginUser authenticates a requester.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, loginError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active() {
		return nil, nil, apperrors.NewForbidden("account suspended")
	}
	session, err := s.issue(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// LoginAgent authenticates an agent and returns a role-bearing token.
func (s *AuthService) LoginAgent(ctx context.Context, email, password string) (*domain.Agent, *Session, error) {
	agent, err := s.agents.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, loginError(err)
	}
	if err := auth.ComparePassword(agent.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !agent.Active() {
		return nil, nil, apperrors.NewForbidden("agent inactive")
	}
	role := agent.Role
	session, err := s.issue(agent.ID, domain.SubjectTypeStaff, &role)
	if err != nil {
		return nil, nil, err
	}
	return agent, session, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(subjectID string, kind domain.SubjectType, role *domain.AgentRole) (*Session, error) {
	raw, token, err := s.tokenMgr.GenerateToken(subjectID, kind, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{AccessToken: raw, Token: token}, nil
}

func loginError(err error) error {
	if repository.IsNotFound(err) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if errors.Is(err, repository.ErrUnavailable) {
		return apperrors.NewPersistenceUnavailable("login", err)
	}
	return apperrors.MapError(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
