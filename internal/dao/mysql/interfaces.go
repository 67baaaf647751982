// Package mysql 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package mysql

import (
	"time"

	"pulse_chat_server/internal/model"
)

// ==================== Repository 接口定义 ====================

// ConversationRepository 会话数据访问接口
// 管理两个用户之间的私聊会话
type ConversationRepository interface {
	// FindByUuid 根据 UUID 查找有效会话
	FindByUuid(uuid string) (*model.Conversation, error)
	// FindActiveByKey 根据规范化会话键查找有效会话
	FindActiveByKey(key string) (*model.Conversation, error)
	// FindActiveByUser 查找用户参与的所有有效会话（用于在线状态对端计算）
	FindActiveByUser(userId string, limit int) ([]model.Conversation, error)
	// ListByUser 分页查询用户的有效会话列表
	// query 非空时对另一方 ID 做大小写不敏感的子串过滤
	// 按 last_message_at 降序排列
	ListByUser(userId, query string, offset, limit int) ([]model.Conversation, error)
	// Create 创建会话
	// 并发重复创建时返回的错误可被 errors.Is(err, gorm.ErrDuplicatedKey) 识别
	Create(conversation *model.Conversation) error
	// UpdateLastMessageAt 更新会话最后消息时间
	UpdateLastMessageAt(uuid string, at time.Time) error
	// Deactivate 软删除会话（置 is_active = false）
	Deactivate(uuid string) error
}

// MessageRepository 消息数据访问接口
// 管理私聊消息的存取
type MessageRepository interface {
	// Create 创建消息
	Create(message *model.Message) error
	// FindPageByConversationId 分页查询会话消息（按创建时间降序，历史回溯用）
	FindPageByConversationId(conversationId string, offset, limit int) ([]model.Message, error)
	// FindAllByConversationId 查询会话全部消息（按创建时间升序，会话视图用）
	FindAllByConversationId(conversationId string) ([]model.Message, error)
	// CountUnread 统计会话中 readerId 尚未读的消息数（sender != readerId 且未读）
	CountUnread(conversationId, readerId string) (int64, error)
	// MarkReadByConversationAndReader 批量标记已读
	// 单条原子 UPDATE：is_read=true、read_at=now，只影响对方发送的未读消息
	// 返回受影响的行数，重复调用为无副作用的幂等操作
	MarkReadByConversationAndReader(conversationId, readerId string, readAt time.Time) (int64, error)
	// FindLastByConversationId 查询会话最新一条消息（列表预览用）
	FindLastByConversationId(conversationId string) (*model.Message, error)
}
