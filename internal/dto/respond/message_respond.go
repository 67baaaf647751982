package respond

// MessageRespond 消息视图
// 同时用作 HTTP 响应和 WebSocket 推送的消息事件载荷
type MessageRespond struct {
	Id             int64  `json:"id"`
	ConversationId string `json:"conversationId"`
	SenderId       string `json:"senderId"`
	Content        string `json:"content"`
	CreatedAt      string `json:"createdAt"`
	ReadAt         string `json:"readAt,omitempty"` // 未读时为空
	IsRead         bool   `json:"isRead"`
}
