package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. User or Agent is nil when
// the account store was unavailable and the signed claims were trusted.
type Principal struct {
	Subject domain.SubjectType
	ID      string
	Role    *domain.AgentRole
	User    *domain.User
	Agent   *domain.Agent
}

// IsAdmin reports whether the caller is an admin agent.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Subject == domain.SubjectTypeStaff && p.Role != nil && *p.Role == domain.AgentRoleAdmin
}

// UserLookup resolves requester accounts.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AgentLookup resolves agent accounts.
type AgentLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLookup
	agents AgentLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup, agents AgentLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, agents: agents}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{Subject: claims.Kind, ID: claims.Subject, Role: claims.Role}
	ctx := c.UserContext()

	switch claims.Kind {
	case domain.SubjectTypeUser:
		user, err := m.users.GetByID(ctx, claims.Subject)
		switch {
		case err == nil:
			if !user.Active() {
				return apperrors.NewForbidden("account suspended")
			}
			principal.User = user
		case errors.Is(err, repository.ErrUnavailable):
		case repository.IsNotFound(err):
			return apperrors.NewUnauthorized("user not found")
		default:
			return apperrors.MapError(err)
		}
	case domain.SubjectTypeStaff:
		agent, err := m.agents.GetByID(ctx, claims.Subject)
		switch {
		case err == nil:
			if !agent.Active() {
				return apperrors.NewForbidden("agent inactive")
			}
			principal.Agent = agent
			role := agent.Role
			principal.Role = &role
		case errors.Is(err, repository.ErrUnavailable):
		case repository.IsNotFound(err):
			return apperrors.NewUnauthorized("agent not found")
		default:
			return apperrors.MapError(err)
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
