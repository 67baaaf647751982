// Package model 定义数据库实体模型
// 本文件定义会话模型，会话代表两个用户之间的私聊关系
package model

import (
	"database/sql"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Conversation 会话模型
// 对应数据库 conversation 表
// 同一对用户之间最多存在一个会话，由 ConversationKey 的唯一约束保证
type Conversation struct {
	gorm.Model // 内嵌 GORM 模型，包含 ID、CreatedAt、UpdatedAt、DeletedAt

	// Uuid 会话唯一标识
	// 格式：C + 时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(24);comment:会话uuid"`

	// ConversationKey 规范化会话键
	// 两个参与者 ID 小写、排序后以下划线拼接
	// 唯一约束是并发 getOrCreate 的幂等性来源
	ConversationKey string `gorm:"column:conversation_key;uniqueIndex;type:varchar(191);not null;comment:规范化会话键"`

	// Initiator 发起会话的用户 ID
	Initiator string `gorm:"column:initiator;index;type:varchar(64);not null;comment:发起人id"`

	// Participant 另一方用户 ID
	// 除创建者身份外与 Initiator 等价
	Participant string `gorm:"column:participant;index;type:varchar(64);not null;comment:参与人id"`

	// LastMessageAt 最后消息时间
	// 每次成功追加消息时更新，用于会话列表排序
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;type:datetime;comment:最近消息时间"`

	// IsActive 会话是否有效
	// 软删除只置 false，消息历史保持可寻址
	IsActive bool `gorm:"column:is_active;not null;default:true;comment:是否有效"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}

// OtherParty 返回相对于 userId 的另一方参与者 ID
func (c *Conversation) OtherParty(userId string) string {
	if userId == c.Initiator {
		return c.Participant
	}
	return c.Initiator
}

// HasParticipant 判断 userId 是否为会话参与者
func (c *Conversation) HasParticipant(userId string) bool {
	return userId == c.Initiator || userId == c.Participant
}

// GenerateConversationKey 计算两个用户的规范化会话键
// 与顺序无关：GenerateConversationKey(a, b) == GenerateConversationKey(b, a)
func GenerateConversationKey(userA, userB string) string {
	pair := []string{strings.ToLower(userA), strings.ToLower(userB)}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}
