package chat

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/util/snowflake"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UserConn 一条已认证用户的 WebSocket 连接
// 同一用户可同时持有多条连接，ConnId 区分端
type UserConn struct {
	UserId   string
	ConnId   int64
	conn     *websocket.Conn
	server   *StandaloneServer
	SendBack chan []byte // 出站缓冲，由 writeLoop 独占消费

	logoutOnce sync.Once
}

// NewClientInit 升级 HTTP 连接为 WebSocket 并注册到传输服务器
// userId 必须在升级前由认证层解析完成
func NewClientInit(c *gin.Context, userId string, server *StandaloneServer) error {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("WebSocket 升级失败", zap.String("user_id", userId), zap.Error(err))
		return err
	}

	client := &UserConn{
		UserId:   userId,
		ConnId:   snowflake.GenerateID(),
		conn:     ws,
		server:   server,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
	server.Login <- client

	go client.readLoop()
	go client.writeLoop()
	return nil
}

// readLoop 读取入站事件并分发
// 任何读错误（含对端关闭）都触发注销，由在线状态跟踪器做离线防抖
func (c *UserConn) readLoop() {
	defer c.logout()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("连接异常断开",
					zap.String("user_id", c.UserId),
					zap.Int64("conn_id", c.ConnId),
					zap.Error(err),
				)
			}
			return
		}
		c.dispatch(data)
	}
}

// dispatch 按事件名分发入站事件
// 业务失败只记日志不回写错误帧；身份未解析的事件静默丢弃
func (c *UserConn) dispatch(data []byte) {
	if c.UserId == "" {
		zap.L().Warn("丢弃未认证连接的入站事件", zap.Int64("conn_id", c.ConnId))
		return
	}

	var evt request.WsEventRequest
	if err := json.Unmarshal(data, &evt); err != nil {
		zap.L().Warn("入站事件解码失败", zap.String("user_id", c.UserId), zap.Error(err))
		return
	}

	switch evt.Event {
	case request.WsEventSendMessage:
		var req request.SendMessageRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			zap.L().Warn("发送消息事件解码失败", zap.String("user_id", c.UserId), zap.Error(err))
			return
		}
		if _, err := c.server.gateway.SendMessage(c.UserId, &req); err != nil {
			zap.L().Warn("处理发送消息事件失败", zap.String("user_id", c.UserId), zap.Error(err))
		}
	case request.WsEventMarkRead:
		var req request.MarkReadRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			zap.L().Warn("已读事件解码失败", zap.String("user_id", c.UserId), zap.Error(err))
			return
		}
		if err := c.server.gateway.MarkConversationRead(c.UserId, &req); err != nil {
			zap.L().Warn("处理已读事件失败", zap.String("user_id", c.UserId), zap.Error(err))
		}
	case request.WsEventTyping:
		var req request.TypingRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			zap.L().Warn("输入状态事件解码失败", zap.String("user_id", c.UserId), zap.Error(err))
			return
		}
		if err := c.server.gateway.NotifyTyping(c.UserId, &req); err != nil {
			zap.L().Warn("处理输入状态事件失败", zap.String("user_id", c.UserId), zap.Error(err))
		}
	default:
		zap.L().Warn("未知入站事件",
			zap.String("user_id", c.UserId),
			zap.String("event", evt.Event),
		)
	}
}

// writeLoop 消费出站缓冲并写入连接，定期发送心跳
func (c *UserConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.logout()
	}()

	for {
		select {
		case data, ok := <-c.SendBack:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 注销时通道被关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				zap.L().Warn("写入连接失败",
					zap.String("user_id", c.UserId),
					zap.Int64("conn_id", c.ConnId),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// logout 触发一次注销（读写循环双方都可能先到）
func (c *UserConn) logout() {
	c.logoutOnce.Do(func() {
		c.server.Logout <- c
	})
}
