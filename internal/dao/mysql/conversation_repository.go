// Package mysql 提供数据访问层的具体实现
// 本文件实现 ConversationRepository 接口，处理会话相关的数据库操作
package mysql

import (
	"time"

	"pulse_chat_server/internal/model"

	"gorm.io/gorm"
)

// conversationRepository ConversationRepository 接口的实现
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建 ConversationRepository 实例
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindByUuid 根据 UUID 查找有效会话
func (r *conversationRepository) FindByUuid(uuid string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("uuid = ? AND is_active = ?", uuid, true).First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 uuid=%s", uuid)
	}
	return &conversation, nil
}

// FindActiveByKey 根据规范化会话键查找有效会话
func (r *conversationRepository) FindActiveByKey(key string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("conversation_key = ? AND is_active = ?", key, true).First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 key=%s", key)
	}
	return &conversation, nil
}

// FindActiveByUser 查找用户参与的所有有效会话
func (r *conversationRepository) FindActiveByUser(userId string, limit int) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := r.db.Where("(initiator = ? OR participant = ?) AND is_active = ?", userId, userId, true).
		Limit(limit).Find(&conversations).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户会话 user=%s", userId)
	}
	return conversations, nil
}

// ListByUser 分页查询用户的有效会话列表
// query 非空时对另一方 ID 做大小写不敏感的子串匹配
func (r *conversationRepository) ListByUser(userId, query string, offset, limit int) ([]model.Conversation, error) {
	var conversations []model.Conversation
	tx := r.db.Where("(initiator = ? OR participant = ?) AND is_active = ?", userId, userId, true)
	if query != "" {
		// 过滤目标是"相对于 userId 的另一方"
		tx = tx.Where(
			"LOWER(CASE WHEN initiator = ? THEN participant ELSE initiator END) LIKE ?",
			userId, "%"+toLowerPattern(query)+"%",
		)
	}
	if err := tx.Order("last_message_at DESC").
		Offset(offset).Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话列表 user=%s", userId)
	}
	return conversations, nil
}

// Create 创建会话
// 唯一键冲突时原样向上传递 gorm.ErrDuplicatedKey，由业务层判定"已存在"
func (r *conversationRepository) Create(conversation *model.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	return nil
}

// UpdateLastMessageAt 更新会话最后消息时间
func (r *conversationRepository) UpdateLastMessageAt(uuid string, at time.Time) error {
	if err := r.db.Model(&model.Conversation{}).
		Where("uuid = ?", uuid).
		Update("last_message_at", at).Error; err != nil {
		return wrapDBErrorf(err, "更新会话时间 uuid=%s", uuid)
	}
	return nil
}

// Deactivate 软删除会话
// 仅置 is_active = false，消息历史保持可寻址
func (r *conversationRepository) Deactivate(uuid string) error {
	if err := r.db.Model(&model.Conversation{}).
		Where("uuid = ?", uuid).
		Update("is_active", false).Error; err != nil {
		return wrapDBErrorf(err, "删除会话 uuid=%s", uuid)
	}
	return nil
}
