package request

// SendMessageRequest 发送消息请求
// HTTP 接口与 WebSocket chat.sendMessage 事件共用
type SendMessageRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}
