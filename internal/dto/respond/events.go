package respond

// WebSocket 出站事件名
const (
	WsEventMessage     = "chat.message"      // 私信推送（接收方）
	WsEventMessageSent = "chat.messageSent"  // 发送回执（发送方，载荷同上）
	WsEventPresence    = "presence.status"   // 在线状态变更
	WsEventTyping      = "chat.typing"       // 输入状态
	WsEventReadReceipt = "chat.messagesRead" // 已读回执
	WsEventUnreadCount = "chat.unreadCount"  // 未读计数更新
)

// 在线状态值
const (
	StatusOnline  = "ONLINE"
	StatusOffline = "OFFLINE"
)

// WsEventRespond WebSocket 出站事件信封
type WsEventRespond struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PresenceEventRespond 在线状态变更事件
// 只推送给与当事人存在有效会话的对端，不做全局广播
type PresenceEventRespond struct {
	SubjectUserId string `json:"subjectUserId"`
	Status        string `json:"status"` // ONLINE / OFFLINE
	Timestamp     string `json:"timestamp"`
}

// TypingEventRespond 输入状态事件
// 瞬态提示，不持久化；发送者自己也可能收到（幂等的 UI 提示）
type TypingEventRespond struct {
	UserId    string `json:"userId"`
	IsTyping  bool   `json:"isTyping"`
	Timestamp string `json:"timestamp"`
}

// ReadReceiptRespond 已读回执事件
type ReadReceiptRespond struct {
	ConversationId string `json:"conversationId"`
	ReaderId       string `json:"readerId"`
	Timestamp      string `json:"timestamp"`
}

// UnreadCountRespond 未读计数更新事件
type UnreadCountRespond struct {
	ConversationId string `json:"conversationId"`
	Count          int64  `json:"count"`
}
