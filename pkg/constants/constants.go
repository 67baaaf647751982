package constants

const (
	CHANNEL_SIZE  = 100 // 通道大小
	REDIS_TIMEOUT = 1   // redis timeout (分钟)

	// 会话列表分页上限
	CONVERSATION_PAGE_MAX_SIZE = 100
	// 消息历史分页上限
	MESSAGE_PAGE_MAX_SIZE = 1000
	// 消息历史默认分页大小
	MESSAGE_PAGE_DEFAULT_SIZE = 200

	// 离线防抖宽限期默认值（秒）
	OFFLINE_GRACE_SECONDS = 3
)
