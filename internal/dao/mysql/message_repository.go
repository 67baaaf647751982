// Package mysql 提供数据访问层的具体实现
// 本文件实现 MessageRepository 接口，处理消息相关的数据库操作
package mysql

import (
	"time"

	"pulse_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindPageByConversationId 分页查询会话消息
// 按创建时间降序，供历史回溯接口使用（错过推送的客户端用它补齐）
func (r *messageRepository) FindPageByConversationId(conversationId string, offset, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 conversation_id=%s", conversationId)
	}
	return messages, nil
}

// FindAllByConversationId 查询会话全部消息（按创建时间升序）
func (r *messageRepository) FindAllByConversationId(conversationId string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("conversation_id = ?", conversationId).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 conversation_id=%s", conversationId)
	}
	return messages, nil
}

// CountUnread 统计会话中 readerId 尚未读的消息数
func (r *messageRepository) CountUnread(conversationId, readerId string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationId, readerId, false).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读消息 conversation_id=%s", conversationId)
	}
	return count, nil
}

// MarkReadByConversationAndReader 批量标记已读
// 单条 UPDATE 原子完成，避免并发 markRead 之间的读写竞态
func (r *messageRepository) MarkReadByConversationAndReader(conversationId, readerId string, readAt time.Time) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationId, readerId, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "标记已读 conversation_id=%s", conversationId)
	}
	return res.RowsAffected, nil
}

// FindLastByConversationId 查询会话最新一条消息
func (r *messageRepository) FindLastByConversationId(conversationId string) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		First(&message).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询最新消息 conversation_id=%s", conversationId)
	}
	return &message, nil
}
