// Package conversation 实现会话目录服务
// 会话是按参与者对寻址的：同一对用户最多存在一个有效会话，
// 幂等性由规范化会话键上的数据库唯一约束保证，而非内存锁
package conversation

import (
	"errors"
	"strings"
	"time"

	"pulse_chat_server/internal/dao/mysql"
	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/random"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PresenceReader 在线状态读取接口（消费方定义的最小接口）
type PresenceReader interface {
	IsOnline(userId string) bool
	Snapshot(userId string)
}

// Service 会话目录服务
type Service struct {
	conversationRepo mysql.ConversationRepository
	messageRepo      mysql.MessageRepository
	presence         PresenceReader
}

// NewService 创建会话目录服务
func NewService(repos *mysql.Repositories, presence PresenceReader) *Service {
	return &Service{
		conversationRepo: repos.Conversation,
		messageRepo:      repos.Message,
		presence:         presence,
	}
}

// GetOrCreate 打开或创建 initiatorId 与 participantId 之间的会话
// 已存在有效会话时直接返回；不存在时创建，并发重复创建由唯一约束
// 兜底——输掉竞争的一方读取胜者的行返回，双方拿到同一个会话
func (s *Service) GetOrCreate(initiatorId, participantId string) (*respond.ConversationRespond, error) {
	if initiatorId == "" {
		return nil, errorx.New(errorx.CodeUnauthorized, "身份缺失，请先登录")
	}
	participantId = strings.TrimSpace(participantId)
	if participantId == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "对方用户不能为空")
	}
	if strings.EqualFold(initiatorId, participantId) {
		return nil, errorx.New(errorx.CodeInvalidParam, "不能与自己创建会话")
	}

	key := model.GenerateConversationKey(initiatorId, participantId)
	conv, err := s.conversationRepo.FindActiveByKey(key)
	if err == nil {
		return s.buildView(conv, initiatorId, true)
	}
	if !errorx.IsNotFound(err) {
		zap.L().Error("查询会话失败", zap.String("key", key), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	conv = &model.Conversation{
		Uuid:            "C" + random.GetNowAndLenRandomString(17),
		ConversationKey: key,
		Initiator:       initiatorId,
		Participant:     participantId,
		IsActive:        true,
	}
	if err := s.conversationRepo.Create(conv); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			zap.L().Error("创建会话失败", zap.String("key", key), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}
		// 并发竞争中输了，读胜者的行
		conv, err = s.conversationRepo.FindActiveByKey(key)
		if err != nil {
			zap.L().Error("读取并发创建的会话失败", zap.String("key", key), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}
		return s.buildView(conv, initiatorId, true)
	}

	zap.L().Info("创建会话",
		zap.String("conversation_id", conv.Uuid),
		zap.String("initiator", initiatorId),
		zap.String("participant", participantId),
	)

	// 新会话意味着发起人的关注面扩大了，补偿推送一次状态快照
	s.presence.Snapshot(initiatorId)

	return s.buildView(conv, initiatorId, true)
}

// List 分页查询 userId 的有效会话
// query 非空时对另一方 ID 做大小写不敏感的子串过滤
func (s *Service) List(userId string, req *request.ConversationListRequest) ([]respond.ConversationRespond, error) {
	if userId == "" {
		return nil, errorx.New(errorx.CodeUnauthorized, "身份缺失，请先登录")
	}

	conversations, err := s.conversationRepo.ListByUser(userId, req.Query, req.Page*req.Size, req.Size)
	if err != nil {
		zap.L().Error("查询会话列表失败", zap.String("user_id", userId), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	list := make([]respond.ConversationRespond, 0, len(conversations))
	for i := range conversations {
		// 列表视图只带最新一条消息预览，不加载全量历史
		view, err := s.buildView(&conversations[i], userId, false)
		if err != nil {
			return nil, err
		}
		list = append(list, *view)
	}
	return list, nil
}

// GetById 查询单个会话的完整视图
func (s *Service) GetById(conversationId, userId string) (*respond.ConversationRespond, error) {
	conv, err := s.findParticipating(conversationId, userId)
	if err != nil {
		return nil, err
	}
	return s.buildView(conv, userId, true)
}

// Delete 软删除会话
// 只置 is_active = false，消息历史保持可寻址；重复删除幂等
func (s *Service) Delete(conversationId, userId string) error {
	conv, err := s.findParticipating(conversationId, userId)
	if err != nil {
		return err
	}
	if err := s.conversationRepo.Deactivate(conv.Uuid); err != nil {
		zap.L().Error("删除会话失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return errorx.ErrServerBusy
	}
	zap.L().Info("删除会话", zap.String("conversation_id", conv.Uuid), zap.String("user_id", userId))
	return nil
}

// findParticipating 查找有效会话并校验 userId 是参与者
func (s *Service) findParticipating(conversationId, userId string) (*model.Conversation, error) {
	conv, err := s.conversationRepo.FindByUuid(conversationId)
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

// buildView 以 viewer 的视角构建会话视图
// withMessages 为 true 时加载全量消息（升序），否则只取最新一条做预览
func (s *Service) buildView(conv *model.Conversation, viewer string, withMessages bool) (*respond.ConversationRespond, error) {
	other := conv.OtherParty(viewer)

	unread, err := s.messageRepo.CountUnread(conv.Uuid, viewer)
	if err != nil {
		zap.L().Error("统计未读消息失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	view := &respond.ConversationRespond{
		Id:          conv.Uuid,
		Name:        other,
		Online:      s.presence.IsOnline(other),
		UnreadCount: unread,
		Messages:    []respond.MessageRespond{},
		CreatedAt:   conv.CreatedAt.Format(time.RFC3339),
	}

	if withMessages {
		messages, err := s.messageRepo.FindAllByConversationId(conv.Uuid)
		if err != nil {
			zap.L().Error("查询会话消息失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
			return nil, errorx.ErrServerBusy
		}
		view.Messages = make([]respond.MessageRespond, 0, len(messages))
		for i := range messages {
			view.Messages = append(view.Messages, toMessageRespond(&messages[i]))
		}
		if n := len(view.Messages); n > 0 {
			view.LastMessage = &view.Messages[n-1]
		}
		return view, nil
	}

	last, err := s.messageRepo.FindLastByConversationId(conv.Uuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return view, nil // 空会话没有预览
		}
		zap.L().Error("查询最新消息失败", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	preview := toMessageRespond(last)
	view.LastMessage = &preview
	return view, nil
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
