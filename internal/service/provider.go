// Package service 提供 Service 层聚合与组装
package service

import (
	"time"

	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/dao/mysql"
	myredis "pulse_chat_server/internal/dao/redis"
	"pulse_chat_server/internal/service/chat"
	"pulse_chat_server/internal/service/conversation"
	"pulse_chat_server/internal/service/presence"
	"pulse_chat_server/pkg/constants"
)

// Services 聚合所有 Service 实例
// Handler 层通过此结构访问业务逻辑
type Services struct {
	Conversation ConversationService
	Chat         ChatService
	Presence     PresenceService

	// Server 实时传输服务器
	// WebSocket Handler 在此注册连接，组装完成后由调用方启动事件循环
	Server *chat.StandaloneServer
}

// NewServices 组装所有 Service 实例
// 传输服务器与在线状态跟踪器互相引用，在此处完成双向注入
func NewServices(repos *mysql.Repositories, cache myredis.AsyncCacheService, cfg *config.Config) *Services {
	server := chat.NewStandaloneServer(chat.NewKafkaJournal(cfg.KafkaConfig))

	graceSeconds := cfg.PresenceConfig.OfflineGraceSeconds
	if graceSeconds <= 0 {
		graceSeconds = constants.OFFLINE_GRACE_SECONDS
	}
	tracker := presence.NewTracker(repos.Conversation, server, time.Duration(graceSeconds)*time.Second)
	server.SetPresence(tracker)

	gateway := chat.NewGateway(repos, server, cache)
	server.SetGateway(gateway)

	return &Services{
		Conversation: conversation.NewService(repos, tracker),
		Chat:         gateway,
		Presence:     tracker,
		Server:       server,
	}
}
