// Package service 定义业务服务层接口
// Handler 层依赖这些接口而非具体实现，便于测试时替换
package service

import (
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
)

// ConversationService 会话目录服务接口
// 负责私聊会话的创建、查询与软删除
type ConversationService interface {
	// GetOrCreate 打开或创建两个用户之间的会话
	// 对同一用户对幂等：并发调用收敛到同一个会话
	// 新建会话时会触发发起人的在线状态快照补偿推送
	GetOrCreate(initiatorId, participantId string) (*respond.ConversationRespond, error)
	// List 分页查询用户的有效会话，按最后消息时间降序
	List(userId string, req *request.ConversationListRequest) ([]respond.ConversationRespond, error)
	// GetById 查询单个会话的完整视图（含全部消息）
	GetById(conversationId, userId string) (*respond.ConversationRespond, error)
	// Delete 软删除会话，仅参与者可操作
	Delete(conversationId, userId string) error
}

// ChatService 消息网关服务接口
// 发送、已读、输入状态、历史查询的统一入口
// HTTP 接口和 WebSocket 事件分发共用同一实现
type ChatService interface {
	// SendMessage 持久化消息并尽力推送给双方
	// 推送失败不影响返回结果，消息可通过历史接口补取
	SendMessage(senderId string, req *request.SendMessageRequest) (*respond.MessageRespond, error)
	// MarkConversationRead 批量标记对方发来的未读消息为已读（幂等）
	MarkConversationRead(readerId string, req *request.MarkReadRequest) error
	// NotifyTyping 转发输入状态，瞬态不持久化
	NotifyTyping(userId string, req *request.TypingRequest) error
	// GetMessageList 分页查询消息历史（按创建时间降序）
	GetMessageList(userId string, req *request.MessageListRequest) ([]respond.MessageRespond, error)
	// GetUnreadCount 查询会话中当前用户的未读消息数
	GetUnreadCount(conversationId, userId string) (int64, error)
}

// PresenceService 在线状态服务接口
// 由实时传输层在连接生命周期事件中驱动
type PresenceService interface {
	// OnConnect 连接建立：计数加一，取消待定的离线定时器
	OnConnect(userId string)
	// OnDisconnect 连接断开：计数减一，降到 0 时调度防抖离线定时器
	OnDisconnect(userId string)
	// Snapshot 向请求者推送其所有会话对端的当前状态
	Snapshot(userId string)
	// IsOnline 查询用户当前是否在线
	IsOnline(userId string) bool
}
