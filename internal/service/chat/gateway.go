// Package chat 实现消息网关与实时传输
// 网关是发送、已读、输入状态、历史查询的唯一入口，持久化是成败边界：
// 消息落库即成功，后续推送尽力而为，失败只记日志不回滚
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	myredis "pulse_chat_server/internal/dao/redis"

	"pulse_chat_server/internal/dao/mysql"
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// Pusher 出站推送接口（消费方定义的最小接口）
// 由实时传输层实现，目标用户不在线时静默丢弃
type Pusher interface {
	SendToUser(userId string, event respond.WsEventRespond)
	SendToConversation(userIds []string, event respond.WsEventRespond)
}

// Gateway 消息网关
type Gateway struct {
	conversationRepo mysql.ConversationRepository
	messageRepo      mysql.MessageRepository
	pusher           Pusher
	cache            myredis.AsyncCacheService
}

// NewGateway 创建消息网关
func NewGateway(repos *mysql.Repositories, pusher Pusher, cache myredis.AsyncCacheService) *Gateway {
	return &Gateway{
		conversationRepo: repos.Conversation,
		messageRepo:      repos.Message,
		pusher:           pusher,
		cache:            cache,
	}
}

// SendMessage 发送私信
// 校验会话与发送者资格 -> 落库 -> 更新会话时间线 -> 推送：
//   - 接收方收到 chat.message 与最新的 chat.unreadCount
//   - 发送方收到 chat.messageSent 回执（跨端同步）
//
// 任一推送失败都不影响返回值，历史接口是兜底
func (g *Gateway) SendMessage(senderId string, req *request.SendMessageRequest) (*respond.MessageRespond, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "消息内容不能为空")
	}

	conv, err := g.findParticipating(req.ConversationId, senderId)
	if err != nil {
		return nil, err
	}

	message := &model.Message{
		Uuid:           snowflake.GenerateID(),
		ConversationId: conv.Uuid,
		SenderId:       senderId,
		Content:        html.EscapeString(content),
	}
	if err := g.messageRepo.Create(message); err != nil {
		zap.L().Error("消息落库失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	// 时间线更新失败不回滚消息，下一条消息会纠正排序
	if err := g.conversationRepo.UpdateLastMessageAt(conv.Uuid, message.CreatedAt); err != nil {
		zap.L().Error("更新会话时间线失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
	}

	g.invalidateMessageCache(conv.Uuid)

	rsp := toMessageRespond(message)
	receiverId := conv.OtherParty(senderId)

	g.pusher.SendToUser(receiverId, respond.WsEventRespond{
		Event: respond.WsEventMessage,
		Data:  rsp,
	})
	g.pusher.SendToUser(senderId, respond.WsEventRespond{
		Event: respond.WsEventMessageSent,
		Data:  rsp,
	})

	if unread, err := g.messageRepo.CountUnread(conv.Uuid, receiverId); err != nil {
		zap.L().Error("统计未读消息失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
	} else {
		g.pusher.SendToUser(receiverId, respond.WsEventRespond{
			Event: respond.WsEventUnreadCount,
			Data: respond.UnreadCountRespond{
				ConversationId: conv.Uuid,
				Count:          unread,
			},
		})
	}

	return &rsp, nil
}

// MarkConversationRead 批量标记已读
// 单条原子 UPDATE 覆盖对方发来的全部未读消息，重复调用幂等；
// 完成后向对方推送已读回执
func (g *Gateway) MarkConversationRead(readerId string, req *request.MarkReadRequest) error {
	conv, err := g.findParticipating(req.ConversationId, readerId)
	if err != nil {
		return err
	}

	now := time.Now()
	rows, err := g.messageRepo.MarkReadByConversationAndReader(conv.Uuid, readerId, now)
	if err != nil {
		zap.L().Error("标记已读失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return errorx.ErrServerBusy
	}
	if rows > 0 {
		g.invalidateMessageCache(conv.Uuid)
	}

	zap.L().Debug("标记已读",
		zap.String("conversation_id", conv.Uuid),
		zap.String("reader_id", readerId),
		zap.Int64("rows", rows),
	)

	g.pusher.SendToUser(conv.OtherParty(readerId), respond.WsEventRespond{
		Event: respond.WsEventReadReceipt,
		Data: respond.ReadReceiptRespond{
			ConversationId: conv.Uuid,
			ReaderId:       readerId,
			Timestamp:      now.Format(time.RFC3339),
		},
	})
	return nil
}

// NotifyTyping 转发输入状态到会话双方
// 瞬态事件：不落库、不缓存，连接不在线就丢弃
func (g *Gateway) NotifyTyping(userId string, req *request.TypingRequest) error {
	conv, err := g.findParticipating(req.ConversationId, userId)
	if err != nil {
		return err
	}

	g.pusher.SendToConversation([]string{conv.Initiator, conv.Participant}, respond.WsEventRespond{
		Event: respond.WsEventTyping,
		Data: respond.TypingEventRespond{
			UserId:    userId,
			IsTyping:  req.IsTyping,
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
	return nil
}

// GetMessageList 分页查询消息历史（按创建时间降序）
// 推送丢失后的兜底读路径，带 Redis 页缓存
func (g *Gateway) GetMessageList(userId string, req *request.MessageListRequest) ([]respond.MessageRespond, error) {
	conv, err := g.findParticipating(req.ConversationId, userId)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("message_list_%s_%d_%d", conv.Uuid, req.Page, req.Size)
	ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
	defer cancel()
	if cached, err := g.cache.GetOrError(ctx, cacheKey); err == nil {
		var list []respond.MessageRespond
		if uerr := json.Unmarshal([]byte(cached), &list); uerr == nil {
			return list, nil
		} else {
			zap.L().Warn("消息缓存解码失败", zap.String("key", cacheKey), zap.Error(uerr))
		}
	}

	messages, err := g.messageRepo.FindPageByConversationId(conv.Uuid, req.Page*req.Size, req.Size)
	if err != nil {
		zap.L().Error("查询消息历史失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	list := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		list = append(list, toMessageRespond(&messages[i]))
	}

	// 异步回填缓存，不阻塞读路径
	g.cache.SubmitTask(func() {
		data, err := json.Marshal(list)
		if err != nil {
			zap.L().Error("消息缓存编码失败", zap.String("key", cacheKey), zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := g.cache.Set(ctx, cacheKey, string(data), constants.REDIS_TIMEOUT*time.Minute); err != nil {
			zap.L().Error("消息缓存写入失败", zap.String("key", cacheKey), zap.Error(err))
		}
	})

	return list, nil
}

// GetUnreadCount 查询会话中 userId 的未读消息数
func (g *Gateway) GetUnreadCount(conversationId, userId string) (int64, error) {
	conv, err := g.findParticipating(conversationId, userId)
	if err != nil {
		return 0, err
	}
	unread, err := g.messageRepo.CountUnread(conv.Uuid, userId)
	if err != nil {
		zap.L().Error("统计未读消息失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return 0, errorx.ErrServerBusy
	}
	return unread, nil
}

// findParticipating 查找有效会话并校验 userId 是参与者
func (g *Gateway) findParticipating(conversationId, userId string) (*model.Conversation, error) {
	conv, err := g.conversationRepo.FindByUuid(conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Newf(errorx.CodeNotFound, "会话不存在")
		}
		zap.L().Error("查询会话失败", zap.String("conversation_id", conversationId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if !conv.HasParticipant(userId) {
		return nil, errorx.ErrUnauthorized
	}
	return conv, nil
}

// invalidateMessageCache 异步清除会话的全部消息页缓存
func (g *Gateway) invalidateMessageCache(conversationId string) {
	g.cache.SubmitTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Second)
		defer cancel()
		if err := g.cache.DeleteByPattern(ctx, "message_list_"+conversationId+"_*"); err != nil {
			zap.L().Error("清除消息缓存失败", zap.String("conversation_id", conversationId), zap.Error(err))
		}
	})
}

// toMessageRespond 将消息模型转换为视图
func toMessageRespond(m *model.Message) respond.MessageRespond {
	rsp := respond.MessageRespond{
		Id:             m.Uuid,
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		IsRead:         m.IsRead,
	}
	if m.ReadAt.Valid {
		rsp.ReadAt = m.ReadAt.Time.Format(time.RFC3339)
	}
	return rsp
}
