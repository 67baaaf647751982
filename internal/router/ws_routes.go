// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由（需要认证）
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	// WebSocket 连接入口
	// 握手无法携带自定义 Header，token 通过 query 参数传递
	// 请求示例: ws://host:port/wss?token=xxx
	rg.GET("/wss", rt.handlers.Ws.Connect)
}
