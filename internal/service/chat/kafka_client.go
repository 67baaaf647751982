package chat

import (
	"context"
	"time"

	"pulse_chat_server/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaJournal 出站事件流水
// messageMode 为 "kafka" 时，推送给客户端的每个实时事件同时异步写入
// Kafka 主题，供审计与离线分析消费。写入失败只记日志，不影响推送
type KafkaJournal struct {
	writer *kafka.Writer
}

// NewKafkaJournal 根据配置创建事件流水写入器
// messageMode 不为 "kafka" 时返回 nil
func NewKafkaJournal(cfg config.KafkaConfig) *KafkaJournal {
	if cfg.MessageMode != "kafka" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.HostPort),
		Topic:                  cfg.EventTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.Timeout * time.Second,
		AllowAutoTopicCreation: true,
		Async:                  true, // 流水是尽力而为的旁路
	}
	zap.L().Info("Kafka 事件流水已启用",
		zap.String("addr", cfg.HostPort),
		zap.String("topic", cfg.EventTopic),
	)
	return &KafkaJournal{writer: writer}
}

// Record 写入一条事件流水
// 以 userId 为 key 保证同一用户的事件落入同一分区（保序）
func (j *KafkaJournal) Record(userId, event string, payload []byte) {
	err := j.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(userId),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
	})
	if err != nil {
		zap.L().Error("事件流水写入失败",
			zap.String("user_id", userId),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// Close 关闭写入器，等待异步批次落盘
func (j *KafkaJournal) Close() error {
	if j == nil {
		return nil
	}
	return j.writer.Close()
}
