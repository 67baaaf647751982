package request

// MarkReadRequest 标记会话已读请求
// HTTP 接口与 WebSocket chat.markRead 事件共用
type MarkReadRequest struct {
	ConversationId string `json:"conversationId" binding:"required"`
}
