// Package model 定义数据库实体模型
// 本文件定义消息模型，用于存储私聊消息
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Message 消息模型
// 对应数据库 message 表
// 每条消息归属于且仅归属于一个会话，创建后不可改属
type Message struct {
	gorm.Model

	// Uuid 消息唯一标识
	// 使用雪花算法生成的 int64 类型 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ConversationId 会话 UUID
	// 关联到 Conversation 表，标识消息属于哪个会话
	ConversationId string `gorm:"column:conversation_id;index;type:char(24);not null;comment:会话uuid"`

	// SenderId 发送者 ID
	// 必须是所属会话的两个参与者之一
	SenderId string `gorm:"column:sender_id;index;type:varchar(64);not null;comment:发送者id"`

	// Content 消息文本内容
	// 创建时非空
	Content string `gorm:"column:content;type:TEXT;not null;comment:消息内容"`

	// IsRead 是否已读
	// 只会从未读变为已读，不会回退
	IsRead bool `gorm:"column:is_read;not null;default:false;comment:是否已读"`

	// ReadAt 已读时间
	// IsRead 为 true 时非空，且不早于 CreatedAt
	ReadAt sql.NullTime `gorm:"column:read_at;type:datetime;comment:已读时间"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
