package dto

// ChatMessageRequest payload for POST /chat/messages.
type ChatMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}
