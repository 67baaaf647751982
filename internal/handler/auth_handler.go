// Package handler 提供 HTTP 请求处理器
// 本文件处理令牌刷新
// 用户注册与登录由共享同一签名密钥的上游身份服务负责，本服务只做验签与续期
package handler

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 认证请求处理器
type AuthHandler struct{}

// NewAuthHandler 创建认证请求处理器
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Refresh 用 Refresh Token 换取新的 Access Token
// POST /auth/refresh
// 请求体: request.RefreshTokenRequest
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	claims, err := jwt.ParseToken(req.RefreshToken)
	if err != nil {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "Refresh Token 已过期或无效"))
		return
	}
	if claims.Subject != "refresh_token" {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "请使用 Refresh Token 刷新"))
		return
	}

	accessToken, err := jwt.GenerateAccessToken(claims.UserID)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.String("user_id", claims.UserID), zap.Error(err))
		HandleError(c, errorx.ErrServerBusy)
		return
	}

	HandleSuccess(c, respond.TokenRespond{AccessToken: accessToken})
}
