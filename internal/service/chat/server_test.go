package chat

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubObserver 记录连接生命周期回调
type stubObserver struct {
	mu          sync.Mutex
	connects    []string
	disconnects []string
	snapshots   []string
}

func (s *stubObserver) OnConnect(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects = append(s.connects, userId)
}

func (s *stubObserver) OnDisconnect(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects = append(s.disconnects, userId)
}

func (s *stubObserver) Snapshot(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, userId)
}

func (s *stubObserver) counts() (connects, disconnects, snapshots int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connects), len(s.disconnects), len(s.snapshots)
}

// waitFor 轮询直到条件满足或超时
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

// newTestTransport 启动带真实 WebSocket 端点的传输服务器
// 测试路由用 uid 查询参数代替 JWT 中间件解析身份
func newTestTransport(t *testing.T) (*StandaloneServer, *stubObserver, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := NewStandaloneServer(nil)
	observer := &stubObserver{}
	server.SetPresence(observer)

	gateway := &Gateway{
		conversationRepo: newFakeConvRepo(),
		messageRepo:      &fakeMsgRepo{},
		pusher:           server,
		cache:            newFakeCache(),
	}
	server.SetGateway(gateway)
	go server.Start()
	t.Cleanup(server.Close)

	engine := gin.New()
	engine.GET("/wss", func(c *gin.Context) {
		_ = NewClientInit(c, c.Query("uid"), server)
	})
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/wss"
	return server, observer, wsURL
}

func dial(t *testing.T, wsURL, userId string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?uid="+userId, nil)
	require.NoError(t, err)
	return conn
}

// readEvent 读取下一帧并解码事件信封
func readEvent(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	payload := make(map[string]any)
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	return envelope.Event, payload
}

func TestConnectionLifecycleDrivesObserver(t *testing.T) {
	_, observer, wsURL := newTestTransport(t)

	conn := dial(t, wsURL, "alice")
	waitFor(t, func() bool {
		connects, _, snapshots := observer.counts()
		return connects == 1 && snapshots == 1
	}, "connect callback")

	require.NoError(t, conn.Close())
	waitFor(t, func() bool {
		_, disconnects, _ := observer.counts()
		return disconnects == 1
	}, "disconnect callback")
}

func TestSendToUserReachesAllDevices(t *testing.T) {
	server, observer, wsURL := newTestTransport(t)

	first := dial(t, wsURL, "alice")
	defer first.Close()
	second := dial(t, wsURL, "alice")
	defer second.Close()

	waitFor(t, func() bool {
		connects, _, _ := observer.counts()
		return connects == 2
	}, "both devices registered")

	server.SendToUser("alice", respond.WsEventRespond{
		Event: respond.WsEventPresence,
		Data:  respond.PresenceEventRespond{SubjectUserId: "bob", Status: respond.StatusOnline},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		event, payload := readEvent(t, conn)
		assert.Equal(t, respond.WsEventPresence, event)
		assert.Equal(t, "bob", payload["subjectUserId"])
	}
}

func TestInboundSendMessageDeliveredToReceiver(t *testing.T) {
	_, observer, wsURL := newTestTransport(t)

	alice := dial(t, wsURL, "alice")
	defer alice.Close()
	bob := dial(t, wsURL, "bob")
	defer bob.Close()

	waitFor(t, func() bool {
		connects, _, _ := observer.counts()
		return connects == 2
	}, "both users registered")

	envelope, err := json.Marshal(map[string]any{
		"event": request.WsEventSendMessage,
		"data": request.SendMessageRequest{
			ConversationId: "C1",
			Content:        "hello over ws",
		},
	})
	require.NoError(t, err)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, envelope))

	// 接收方收到消息与未读计数
	event, payload := readEvent(t, bob)
	assert.Equal(t, respond.WsEventMessage, event)
	assert.Equal(t, "hello over ws", payload["content"])
	assert.Equal(t, "alice", payload["senderId"])

	event, payload = readEvent(t, bob)
	assert.Equal(t, respond.WsEventUnreadCount, event)
	assert.Equal(t, float64(1), payload["count"])

	// 发送方收到回执
	event, _ = readEvent(t, alice)
	assert.Equal(t, respond.WsEventMessageSent, event)
}

func TestUnauthenticatedInboundEventIsDropped(t *testing.T) {
	_, _, wsURL := newTestTransport(t)

	// 未解析出身份的连接，入站事件被静默丢弃
	conn := dial(t, wsURL, "")
	defer conn.Close()

	envelope, err := json.Marshal(map[string]any{
		"event": request.WsEventSendMessage,
		"data":  request.SendMessageRequest{ConversationId: "C1", Content: "nope"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, envelope))

	// 没有任何回执帧
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
