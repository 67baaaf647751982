// Package handler 提供 HTTP 请求处理器
// 本文件处理会话目录相关的 API 请求
package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 会话请求处理器
type ConversationHandler struct {
	svc service.ConversationService
}

// NewConversationHandler 创建会话请求处理器
func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// Open 打开或创建与指定用户的会话
// POST /conversation/open
// 请求体: request.OpenConversationRequest
// 幂等：同一对用户重复调用返回同一个会话
func (h *ConversationHandler) Open(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	var req request.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	view, err := h.svc.GetOrCreate(userId, req.Participant)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, view)
}

// List 分页查询当前用户的会话列表
// GET /conversation/list?page=0&size=10&query=
func (h *ConversationHandler) List(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	var req request.ConversationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	list, err := h.svc.List(userId, &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, list)
}

// GetById 查询单个会话的完整视图（含全部消息）
// GET /conversation/:conversationId
func (h *ConversationHandler) GetById(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	view, err := h.svc.GetById(c.Param("conversationId"), userId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, view)
}

// Delete 软删除会话
// POST /conversation/delete
// 请求体: request.DeleteConversationRequest
func (h *ConversationHandler) Delete(c *gin.Context) {
	userId, ok := currentUserId(c)
	if !ok {
		return
	}
	var req request.DeleteConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.svc.Delete(req.ConversationId, userId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
