package request

// MessageListRequest 消息历史查询请求
// 历史接口是推送失败后的兜底，默认一页 200 条
type MessageListRequest struct {
	ConversationId string `form:"conversationId" binding:"required"`
	Page           int    `form:"page,default=0" binding:"min=0"`
	Size           int    `form:"size,default=200" binding:"gt=0,lte=1000"`
}
