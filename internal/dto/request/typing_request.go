package request

// TypingRequest 输入状态通知请求（WebSocket chat.typing 事件）
type TypingRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
	IsTyping       bool   `json:"isTyping"`
}
