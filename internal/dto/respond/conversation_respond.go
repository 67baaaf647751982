package respond

// ConversationRespond 会话视图
// 以调用者视角描述会话：Name/Avatar/Online 均为"另一方"的信息
type ConversationRespond struct {
	Id          string           `json:"id"`
	Name        string           `json:"name"`   // 另一方显示名（本核心以用户 ID 代之）
	Avatar      string           `json:"avatar"` // 另一方头像占位
	Online      bool             `json:"online"` // 另一方当前是否在线
	UnreadCount int64            `json:"unreadCount"`
	LastMessage *MessageRespond  `json:"lastMessage,omitempty"` // 最新消息预览
	Messages    []MessageRespond `json:"messages"`              // 按时间升序
	CreatedAt   string           `json:"createdAt"`
}
