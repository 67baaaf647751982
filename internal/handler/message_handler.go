// Package handler 提供 HTTP 请求处理器
// 本文件处理消息相关的 API 请求
// 发送与已读同时提供 HTTP 接口与 WebSocket 事件两条通路，复用同一 Service
package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/service"
	"pulse_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	svc service.ChatService
}

// NewMessageHandler 创建消息请求处理器
func NewMessageHandler(svc service.ChatService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// Send 发送消息
// POST /message/send
// 请求体: request.SendMessageRequest
// 返回持久化后的消息视图；推送失败不影响本接口的成功返回
func (h *MessageHandler) Send(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	message, err := h.svc.SendMessage(userId, &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, message)
}

// List 分页查询消息历史
// GET /message/list?conversationId=xxx&page=0&size=200
// 按创建时间降序，推送丢失后的兜底读路径
func (h *MessageHandler) List(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	var req request.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	list, err := h.svc.GetMessageList(userId, &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, list)
}

// MarkRead 标记会话内对方发来的全部未读消息为已读
// POST /message/markRead
// 请求体: request.MarkReadRequest
// 幂等操作，重复调用不报错
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	var req request.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.svc.MarkConversationRead(userId, &req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UnreadCount 查询会话中当前用户的未读消息数
// GET /message/unread?conversationId=xxx
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	conversationId := c.Query("conversationId")
	if conversationId == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "conversationId 不能为空"))
		return
	}
	count, err := h.svc.GetUnreadCount(conversationId, userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"conversationId": conversationId, "count": count})
}
