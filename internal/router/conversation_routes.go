// Package router 提供 HTTP 路由注册
// 本文件定义会话目录相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterConversationRoutes 注册会话相关路由（需要认证）
// 包括会话的创建、查询、删除等功能
func (rt *Router) RegisterConversationRoutes(rg *gin.RouterGroup) {
	conversationGroup := rg.Group("/conversation")
	{
		conversationGroup.POST("/open", rt.handlers.Conversation.Open)               // 打开/创建会话
		conversationGroup.GET("/list", rt.handlers.Conversation.List)                // 获取会话列表
		conversationGroup.GET("/:conversationId", rt.handlers.Conversation.GetById)  // 获取单个会话
		conversationGroup.POST("/delete", rt.handlers.Conversation.Delete)           // 删除会话
	}
}
