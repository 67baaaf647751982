// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"pulse_chat_server/internal/service/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 连接处理器
type WsHandler struct {
	server *chat.StandaloneServer
}

// NewWsHandler 创建 WebSocket 连接处理器
func NewWsHandler(server *chat.StandaloneServer) *WsHandler {
	return &WsHandler{server: server}
}

// Connect 将 HTTP 连接升级为 WebSocket
// GET /wss?token=xxx
// 身份由 JWT 中间件在升级前解析；没有解析出身份的握手直接丢弃，
// 不回写错误帧（未认证方不应得到协议层反馈）
func (h *WsHandler) Connect(c *gin.Context) {
	userId := c.GetString("user_id")
	if userId == "" {
		zap.L().Warn("丢弃未认证的 WebSocket 握手", zap.String("remote", c.ClientIP()))
		return
	}
	if err := chat.NewClientInit(c, userId, h.server); err != nil {
		// 升级失败时 gorilla 已经写了 HTTP 错误响应
		zap.L().Error("WebSocket 连接建立失败", zap.String("user_id", userId), zap.Error(err))
	}
}
