package presence

import (
	"sync"
	"testing"
	"time"

	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/internal/model"
	"pulse_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrace = 50 * time.Millisecond

// fakeConversationRepo 内存会话仓储，只实现对端计算需要的查询
type fakeConversationRepo struct {
	conversations []model.Conversation
}

func (f *fakeConversationRepo) FindByUuid(uuid string) (*model.Conversation, error) {
	return nil, errorx.New(errorx.CodeNotFound, "not found")
}

func (f *fakeConversationRepo) FindActiveByKey(key string) (*model.Conversation, error) {
	return nil, errorx.New(errorx.CodeNotFound, "not found")
}

func (f *fakeConversationRepo) FindActiveByUser(userId string, limit int) ([]model.Conversation, error) {
	var result []model.Conversation
	for _, conv := range f.conversations {
		if conv.HasParticipant(userId) {
			result = append(result, conv)
		}
	}
	return result, nil
}

func (f *fakeConversationRepo) ListByUser(userId, query string, offset, limit int) ([]model.Conversation, error) {
	return nil, nil
}

func (f *fakeConversationRepo) Create(conversation *model.Conversation) error { return nil }

func (f *fakeConversationRepo) UpdateLastMessageAt(uuid string, at time.Time) error { return nil }

func (f *fakeConversationRepo) Deactivate(uuid string) error { return nil }

// recordingPusher 记录所有出站推送
type recordingPusher struct {
	mu     sync.Mutex
	events []pushedEvent
}

type pushedEvent struct {
	target string
	event  respond.WsEventRespond
}

func (p *recordingPusher) SendToUser(userId string, event respond.WsEventRespond) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushedEvent{target: userId, event: event})
}

// statusesFor 返回推送给 target 的全部在线状态值（按推送顺序）
func (p *recordingPusher) statusesFor(target string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var statuses []string
	for _, e := range p.events {
		if e.target != target {
			continue
		}
		if data, ok := e.event.Data.(respond.PresenceEventRespond); ok {
			statuses = append(statuses, data.Status)
		}
	}
	return statuses
}

func newTestTracker() (*Tracker, *recordingPusher) {
	repo := &fakeConversationRepo{
		conversations: []model.Conversation{
			{Uuid: "C1", Initiator: "alice", Participant: "bob", IsActive: true},
		},
	}
	pusher := &recordingPusher{}
	return NewTracker(repo, pusher, testGrace), pusher
}

func TestOnConnectBroadcastsOnline(t *testing.T) {
	tracker, pusher := newTestTracker()

	tracker.OnConnect("alice")

	assert.True(t, tracker.IsOnline("alice"))
	// bob 是 alice 唯一的会话对端，收到一次 ONLINE
	assert.Equal(t, []string{respond.StatusOnline}, pusher.statusesFor("bob"))
}

func TestOfflineDebouncedAfterGrace(t *testing.T) {
	tracker, pusher := newTestTracker()

	tracker.OnConnect("alice")
	tracker.OnDisconnect("alice")

	// 宽限期内不广播 OFFLINE
	assert.True(t, func() bool {
		statuses := pusher.statusesFor("bob")
		return len(statuses) == 1 && statuses[0] == respond.StatusOnline
	}())

	time.Sleep(testGrace * 3)
	assert.False(t, tracker.IsOnline("alice"))
	assert.Equal(t, []string{respond.StatusOnline, respond.StatusOffline}, pusher.statusesFor("bob"))
}

func TestReconnectWithinGraceSuppressesFlicker(t *testing.T) {
	tracker, pusher := newTestTracker()

	tracker.OnConnect("alice")
	tracker.OnDisconnect("alice")
	// 宽限期内重连
	time.Sleep(testGrace / 5)
	tracker.OnConnect("alice")

	time.Sleep(testGrace * 3)

	// 对端只看到最初的一次 ONLINE，没有 OFFLINE/ONLINE 抖动
	assert.True(t, tracker.IsOnline("alice"))
	assert.Equal(t, []string{respond.StatusOnline}, pusher.statusesFor("bob"))
}

func TestMultiDeviceStaysOnlineUntilLastDisconnect(t *testing.T) {
	tracker, pusher := newTestTracker()

	tracker.OnConnect("alice")
	tracker.OnConnect("alice")

	// 第二条连接不重复广播 ONLINE
	assert.Equal(t, []string{respond.StatusOnline}, pusher.statusesFor("bob"))

	tracker.OnDisconnect("alice")
	time.Sleep(testGrace * 3)

	// 仍有一条活跃连接，不转为 OFFLINE
	assert.True(t, tracker.IsOnline("alice"))
	assert.Equal(t, []string{respond.StatusOnline}, pusher.statusesFor("bob"))

	tracker.OnDisconnect("alice")
	time.Sleep(testGrace * 3)
	assert.False(t, tracker.IsOnline("alice"))
	assert.Equal(t, []string{respond.StatusOnline, respond.StatusOffline}, pusher.statusesFor("bob"))
}

func TestRapidFlapEmitsExactlyOneOffline(t *testing.T) {
	tracker, pusher := newTestTracker()

	tracker.OnConnect("alice")
	// 宽限期内多次断开/重连
	for i := 0; i < 5; i++ {
		tracker.OnDisconnect("alice")
		tracker.OnConnect("alice")
	}
	tracker.OnDisconnect("alice")

	time.Sleep(testGrace * 3)

	assert.False(t, tracker.IsOnline("alice"))
	// 收束后恰好一次 OFFLINE
	offline := 0
	for _, status := range pusher.statusesFor("bob") {
		if status == respond.StatusOffline {
			offline++
		}
	}
	assert.Equal(t, 1, offline)
}

func TestDisconnectWithoutConnectIsNoop(t *testing.T) {
	tracker, pusher := newTestTracker()

	// 计数下限为 0，不会变成负数
	tracker.OnDisconnect("alice")
	tracker.OnConnect("alice")

	assert.True(t, tracker.IsOnline("alice"))
	assert.Equal(t, []string{respond.StatusOnline}, pusher.statusesFor("bob"))
}

func TestSnapshotPushesPartnerStates(t *testing.T) {
	tracker, pusher := newTestTracker()

	tracker.OnConnect("bob")
	tracker.Snapshot("alice")

	statuses := pusher.statusesFor("alice")
	require.Len(t, statuses, 1)
	assert.Equal(t, respond.StatusOnline, statuses[0])

	// bob 下线后快照反映 OFFLINE
	tracker.OnDisconnect("bob")
	time.Sleep(testGrace * 3)
	tracker.Snapshot("alice")

	statuses = pusher.statusesFor("alice")
	require.Len(t, statuses, 3) // 快照1 + bob 的 OFFLINE 广播 + 快照2
	assert.Equal(t, respond.StatusOffline, statuses[2])
}
