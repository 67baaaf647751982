package request

// DeleteConversationRequest 删除（软删除）会话请求
type DeleteConversationRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
}
