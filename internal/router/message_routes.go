// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
// 发送与已读同时存在于 WebSocket 事件通路，HTTP 接口是等价入口
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/message")
	{
		messageGroup.POST("/send", rt.handlers.Message.Send)           // 发送消息
		messageGroup.GET("/list", rt.handlers.Message.List)            // 获取消息历史
		messageGroup.POST("/markRead", rt.handlers.Message.MarkRead)   // 标记会话已读
		messageGroup.GET("/unread", rt.handlers.Message.UnreadCount)   // 查询未读计数
	}
}
