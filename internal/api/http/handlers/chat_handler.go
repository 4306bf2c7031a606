package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// ChatHandler serves the self-service assistant.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chatService}
}

// SendMessage POST /chat/messages.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Subject != domain.SubjectTypeUser {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	turn, err := h.chat.HandleMessage(c.UserContext(), principal.ID, service.ChatRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		return err
	}
	if turn.Suggestions == nil {
		turn.Suggestions = []domain.ArticleCandidate{}
	}
	return c.JSON(fiber.Map{"data": turn})
}

// GetConversation GET /chat/conversations/:id.
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Subject != domain.SubjectTypeUser {
		return apperrors.NewUnauthorized("user required")
	}
	messages, err := h.chat.History(c.UserContext(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"conversation_id": c.Params("id"),
		"messages":        messages,
	}})
}
