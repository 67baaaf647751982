package request

import "encoding/json"

// WebSocket 入站事件名
const (
	WsEventSendMessage = "chat.sendMessage"
	WsEventTyping      = "chat.typing"
	WsEventMarkRead    = "chat.markRead"
)

// WsEventRequest WebSocket 入站事件信封
// Data 延迟解码，按 Event 分发到具体请求类型
type WsEventRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
