package chat

import (
	"encoding/json"
	"sync"

	"pulse_chat_server/internal/dto/respond"

	"go.uber.org/zap"
)

// ConnectionObserver 连接生命周期观察者
// 由在线状态跟踪器实现，在连接注册/注销时驱动状态机
type ConnectionObserver interface {
	OnConnect(userId string)
	OnDisconnect(userId string)
	Snapshot(userId string)
}

// StandaloneServer 单节点实时传输服务器
// 维护 userId 到活跃 WebSocket 连接集合的映射（同一账号可多端在线），
// 通过 Login/Logout 通道串行处理连接注册与注销
type StandaloneServer struct {
	mu      sync.RWMutex
	clients map[string]map[*UserConn]struct{}

	Login  chan *UserConn
	Logout chan *UserConn
	quit   chan struct{}

	presence ConnectionObserver
	gateway  *Gateway
	journal  *KafkaJournal // 非 kafka 模式为 nil
}

// NewStandaloneServer 创建实时传输服务器
// journal 可为 nil，表示不写事件流水
func NewStandaloneServer(journal *KafkaJournal) *StandaloneServer {
	return &StandaloneServer{
		clients: make(map[string]map[*UserConn]struct{}),
		Login:   make(chan *UserConn),
		Logout:  make(chan *UserConn),
		quit:    make(chan struct{}),
		journal: journal,
	}
}

// SetPresence 注入在线状态观察者
// 服务器与在线状态跟踪器互相引用，由组装方在启动前完成注入
func (s *StandaloneServer) SetPresence(presence ConnectionObserver) {
	s.presence = presence
}

// SetGateway 注入消息网关，供连接的入站事件分发使用
func (s *StandaloneServer) SetGateway(gateway *Gateway) {
	s.gateway = gateway
}

// Start 启动连接事件处理循环
// 注册顺序：先挂入连接表再驱动状态机，保证 Snapshot 的推送有处可去
func (s *StandaloneServer) Start() {
	zap.L().Info("实时传输服务器启动")
	for {
		select {
		case conn := <-s.Login:
			s.register(conn)
			s.presence.OnConnect(conn.UserId)
			s.presence.Snapshot(conn.UserId)
		case conn := <-s.Logout:
			s.unregister(conn)
			s.presence.OnDisconnect(conn.UserId)
		case <-s.quit:
			zap.L().Info("实时传输服务器停止")
			return
		}
	}
}

// Close 停止事件循环并关闭全部连接
func (s *StandaloneServer) Close() {
	close(s.quit)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conns := range s.clients {
		for conn := range conns {
			close(conn.SendBack)
			_ = conn.conn.Close()
		}
	}
	s.clients = make(map[string]map[*UserConn]struct{})
}

// SendToUser 向用户的所有活跃连接推送事件
// 用户不在线时静默丢弃；单个连接的发送缓冲满时丢弃该连接的本次推送
func (s *StandaloneServer) SendToUser(userId string, event respond.WsEventRespond) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("事件编码失败", zap.String("event", event.Event), zap.Error(err))
		return
	}
	s.journalEvent(userId, event.Event, data)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients[userId] {
		select {
		case conn.SendBack <- data:
		default:
			zap.L().Warn("连接发送缓冲已满，丢弃事件",
				zap.String("user_id", userId),
				zap.Int64("conn_id", conn.ConnId),
				zap.String("event", event.Event),
			)
		}
	}
}

// SendToConversation 向一组用户（会话的双方）推送同一事件
func (s *StandaloneServer) SendToConversation(userIds []string, event respond.WsEventRespond) {
	for _, userId := range userIds {
		s.SendToUser(userId, event)
	}
}

// register 将连接挂入连接表
func (s *StandaloneServer) register(conn *UserConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[conn.UserId] == nil {
		s.clients[conn.UserId] = make(map[*UserConn]struct{})
	}
	s.clients[conn.UserId][conn] = struct{}{}
	zap.L().Info("连接注册",
		zap.String("user_id", conn.UserId),
		zap.Int64("conn_id", conn.ConnId),
		zap.Int("device_count", len(s.clients[conn.UserId])),
	)
}

// unregister 将连接移出连接表并释放资源
// 关闭 SendBack 与推送发生在同一把锁的两侧，不会向已关闭通道发送
func (s *StandaloneServer) unregister(conn *UserConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns, ok := s.clients[conn.UserId]
	if !ok {
		return
	}
	if _, ok := conns[conn]; !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(s.clients, conn.UserId)
	}
	close(conn.SendBack)
	_ = conn.conn.Close()
	zap.L().Info("连接注销",
		zap.String("user_id", conn.UserId),
		zap.Int64("conn_id", conn.ConnId),
		zap.Int("device_count", len(conns)),
	)
}

// journalEvent 将出站事件写入 Kafka 事件流水（若启用）
func (s *StandaloneServer) journalEvent(userId, event string, payload []byte) {
	if s.journal == nil {
		return
	}
	s.journal.Record(userId, event, payload)
}
