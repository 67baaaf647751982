package request

// ConversationListRequest 会话列表查询请求
// page 从 0 开始，size 上限 100，越界在绑定阶段拒绝
type ConversationListRequest struct {
	Page  int    `form:"page,default=0" binding:"min=0"`
	Size  int    `form:"size,default=10" binding:"gt=0,lte=100"`
	Query string `form:"query"` // 对另一方 ID 的大小写不敏感子串过滤，可空
}
