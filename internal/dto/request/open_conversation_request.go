package request

// OpenConversationRequest 打开/创建会话请求
// 发起人身份来自认证上下文，不由客户端指定
type OpenConversationRequest struct {
	Participant string `json:"participant" binding:"required"` // 对方用户 ID
}
