package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/service"
)

const testSecret = "router-test-secret"

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type accounts struct{}

func (accounts) GetByID(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Status: domain.UserStatusActive}, nil
}

type agentAccounts struct{ role domain.AgentRole }

func (a agentAccounts) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	return &domain.Agent{ID: id, Role: a.role, Status: domain.AgentStatusActive}, nil
}

func newTestApp(t *testing.T, postgres, redis handlers.Pinger, staffRole domain.AgentRole) *fiber.App {
	t.Helper()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(testSecret, 15)
	authService := service.NewAuthService(config.AuthConfig{JWTSecret: testSecret}, service.AuthDependencies{})
	catalog := service.NewCatalog(service.CatalogDependencies{})
	ticketService := service.NewTicketService(service.TicketDependencies{Catalog: catalog})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("servicedesk", "test", postgres, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, ticketService),
		Tickets:        handlers.NewTicketsHandler(nil, ticketService),
		Chat:           handlers.NewChatHandler(service.NewChatService(service.ChatDependencies{Catalog: catalog})),
		KB:             handlers.NewKBHandler(service.NewKBReviewService(service.KBReviewDependencies{})),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, accounts{}, agentAccounts{role: staffRole}),
		Metrics:        metrics,
	})
	return app
}

func token(t *testing.T, kind domain.SubjectType, role *domain.AgentRole) string {
	t.Helper()
	raw, _, err := auth.NewTokenManager(testSecret, 15).GenerateToken("subject-1", kind, role)
	require.NoError(t, err)
	return raw
}

func call(t *testing.T, app *fiber.App, method, path, bearer, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]any
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthProbes(t *testing.T) {
	app := newTestApp(t, pinger{}, pinger{}, domain.AgentRoleAgent)
	status, body := call(t, app, nethttp.MethodGet, "/health/live", "", "")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = call(t, app, nethttp.MethodGet, "/health/ready", "", "")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	app = newTestApp(t, pinger{}, pinger{err: errors.New("connection refused")}, domain.AgentRoleAgent)
	status, body = call(t, app, nethttp.MethodGet, "/health/ready", "", "")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "degraded", body["status"])

	app = newTestApp(t, pinger{err: errors.New("connection refused")}, pinger{}, domain.AgentRoleAgent)
	status, body = call(t, app, nethttp.MethodGet, "/health/ready", "", "")
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, pinger{}, pinger{}, domain.AgentRoleAgent)
	call(t, app, nethttp.MethodGet, "/health/live", "", "")

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, pinger{}, pinger{}, domain.AgentRoleAgent)

	status, body := call(t, app, nethttp.MethodPost, "/chat/messages", "", `{"message":"hi"}`)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = call(t, app, nethttp.MethodGet, "/staff/agents", "not-a-jwt", "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestChatMessageWithoutStores(t *testing.T) {
	app := newTestApp(t, pinger{}, pinger{}, domain.AgentRoleAgent)
	userToken := token(t, domain.SubjectTypeUser, nil)

	status, body := call(t, app, nethttp.MethodPost, "/chat/messages", userToken, `{"message":"How do I reset my password?"}`)
	require.Equal(t, nethttp.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["escalate_to_human"])
	assert.Equal(t, true, data["degraded"])
	assert.Equal(t, false, data["llm_used"])
	assert.NotEmpty(t, data["conversation_id"])
	assert.NotEmpty(t, data["suggestions"])

	status, body = call(t, app, nethttp.MethodPost, "/chat/messages", userToken, `{"message":"  "}`)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestStaffRoutesCheckRole(t *testing.T) {
	agentRole := domain.AgentRoleAgent
	app := newTestApp(t, pinger{}, pinger{}, domain.AgentRoleAgent)

	status, body := call(t, app, nethttp.MethodGet, "/staff/agents", token(t, domain.SubjectTypeUser, nil), "")
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	staffToken := token(t, domain.SubjectTypeStaff, &agentRole)
	status, body = call(t, app, nethttp.MethodGet, "/staff/agents", staffToken, "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"], 6)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "seed", meta["source"])
	assert.Equal(t, true, meta["degraded"])

	status, _ = call(t, app, nethttp.MethodPost, "/staff/tickets/t-1/assign", staffToken, `{"agent_id":"a-1"}`)
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, _ = call(t, app, nethttp.MethodPost, "/chat/messages", staffToken, `{"message":"hello"}`)
	assert.Equal(t, nethttp.StatusForbidden, status)
}
