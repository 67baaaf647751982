package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse_chat_server/internal/dto/request"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/handler"
	"pulse_chat_server/internal/https_server"
	"pulse_chat_server/internal/service"
	chat "pulse_chat_server/internal/service/chat"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HTTP 层冒烟测试：用桩 Service 驱动完整的 Gin 引擎，
// 覆盖认证中间件、参数绑定、统一响应信封与 WebSocket 握手

type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type stubConversationService struct{}

func (s stubConversationService) GetOrCreate(initiatorId, participantId string) (*respond.ConversationRespond, error) {
	return &respond.ConversationRespond{Id: "C_TEST", Name: participantId}, nil
}

func (s stubConversationService) List(userId string, req *request.ConversationListRequest) ([]respond.ConversationRespond, error) {
	return []respond.ConversationRespond{}, nil
}

func (s stubConversationService) GetById(conversationId, userId string) (*respond.ConversationRespond, error) {
	if conversationId != "C_TEST" {
		return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
	}
	return &respond.ConversationRespond{Id: conversationId}, nil
}

func (s stubConversationService) Delete(conversationId, userId string) error { return nil }

type stubChatService struct{}

func (s stubChatService) SendMessage(senderId string, req *request.SendMessageRequest) (*respond.MessageRespond, error) {
	return &respond.MessageRespond{Id: 1, ConversationId: req.ConversationId, SenderId: senderId, Content: req.Content}, nil
}

func (s stubChatService) MarkConversationRead(readerId string, req *request.MarkReadRequest) error {
	return nil
}

func (s stubChatService) NotifyTyping(userId string, req *request.TypingRequest) error { return nil }

func (s stubChatService) GetMessageList(userId string, req *request.MessageListRequest) ([]respond.MessageRespond, error) {
	return []respond.MessageRespond{}, nil
}

func (s stubChatService) GetUnreadCount(conversationId, userId string) (int64, error) { return 0, nil }

// stubObserver 空的连接生命周期观察者
type stubObserver struct {
	mu       sync.Mutex
	connects int
}

func (s *stubObserver) OnConnect(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
}
func (s *stubObserver) OnDisconnect(userId string) {}
func (s *stubObserver) Snapshot(userId string)     {}

var (
	testServer *httptest.Server
	wsServer   *chat.StandaloneServer
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	jwt.Init("smoke-test-secret-at-least-32-chars", 30, 24)
	if err := handler.InitTrans("zh"); err != nil {
		panic(err)
	}

	wsServer = chat.NewStandaloneServer(nil)
	wsServer.SetPresence(&stubObserver{})
	go wsServer.Start()

	services := &service.Services{
		Conversation: stubConversationService{},
		Chat:         stubChatService{},
		Server:       wsServer,
	}
	engine := https_server.Init(handler.NewHandlers(services))
	testServer = httptest.NewServer(engine)

	code := m.Run()

	testServer.Close()
	wsServer.Close()
	os.Exit(code)
}

func accessTokenFor(t *testing.T, userId string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(userId)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, path, token string, body any) apiEnvelope {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, testServer.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env apiEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v; status=%d; body=%q", err, resp.StatusCode, string(data))
	}
	return env
}

func TestRequestWithoutTokenIsRejected(t *testing.T) {
	env := doJSON(t, http.MethodGet, "/conversation/list", "", nil)
	if env.Code != errorx.CodeUnauthorized {
		t.Fatalf("expected code %d, got %d", errorx.CodeUnauthorized, env.Code)
	}
}

func TestOpenConversation(t *testing.T) {
	token := accessTokenFor(t, "alice")
	env := doJSON(t, http.MethodPost, "/conversation/open", token, request.OpenConversationRequest{Participant: "bob"})
	if env.Code != errorx.CodeSuccess {
		t.Fatalf("expected success, got code=%d msg=%v", env.Code, env.Msg)
	}

	var view respond.ConversationRespond
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if view.Id != "C_TEST" {
		t.Fatalf("unexpected conversation id %q", view.Id)
	}
}

func TestOpenConversationValidation(t *testing.T) {
	token := accessTokenFor(t, "alice")
	// 缺少 participant 字段，绑定阶段拒绝
	env := doJSON(t, http.MethodPost, "/conversation/open", token, map[string]string{})
	if env.Code != errorx.CodeInvalidParam {
		t.Fatalf("expected code %d, got %d", errorx.CodeInvalidParam, env.Code)
	}
}

func TestSendMessageOverHTTP(t *testing.T) {
	token := accessTokenFor(t, "alice")
	env := doJSON(t, http.MethodPost, "/message/send", token, request.SendMessageRequest{
		ConversationId: "C_TEST",
		Content:        "hi",
	})
	if env.Code != errorx.CodeSuccess {
		t.Fatalf("expected success, got code=%d msg=%v", env.Code, env.Msg)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	refreshToken, _, err := jwt.GenerateRefreshToken("alice")
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	env := doJSON(t, http.MethodPost, "/auth/refresh", "", request.RefreshTokenRequest{RefreshToken: refreshToken})
	if env.Code != errorx.CodeSuccess {
		t.Fatalf("expected success, got code=%d msg=%v", env.Code, env.Msg)
	}

	var tokens respond.TokenRespond
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatal("expected a new access token")
	}

	// Access Token 不能用于刷新
	env = doJSON(t, http.MethodPost, "/auth/refresh", "", request.RefreshTokenRequest{RefreshToken: tokens.AccessToken})
	if env.Code != errorx.CodeUnauthorized {
		t.Fatalf("expected code %d, got %d", errorx.CodeUnauthorized, env.Code)
	}
}

func TestWebSocketHandshakeAndPush(t *testing.T) {
	token := accessTokenFor(t, "alice")
	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/wss?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	// 等注册完成后推送一帧
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		wsServer.SendToUser("alice", respond.WsEventRespond{
			Event: respond.WsEventPresence,
			Data:  respond.PresenceEventRespond{SubjectUserId: "bob", Status: respond.StatusOnline},
		})
		_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		if _, data, err := conn.ReadMessage(); err == nil {
			var envelope respond.WsEventRespond
			if err := json.Unmarshal(data, &envelope); err != nil {
				t.Fatalf("decode ws frame: %v", err)
			}
			if envelope.Event != respond.WsEventPresence {
				t.Fatalf("unexpected event %q", envelope.Event)
			}
			return
		}
	}
	t.Fatal("no push frame received before deadline")
}

func TestWebSocketHandshakeWithoutToken(t *testing.T) {
	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/wss"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}
