// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"pulse_chat_server/internal/handler"
	"pulse_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器，持有 Handler 聚合实例
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
// 除令牌刷新外的所有接口都挂在 JWT 认证中间件之后
func (rt *Router) RegisterRoutes(engine *gin.Engine) {
	public := engine.Group("")
	rt.RegisterAuthRoutes(public)

	authed := engine.Group("", middleware.JWTAuth())
	rt.RegisterConversationRoutes(authed) // 会话目录路由
	rt.RegisterMessageRoutes(authed)      // 消息路由
	rt.RegisterWebSocketRoutes(authed)    // WebSocket 路由
}
