// Package presence 实现在线状态跟踪
// 核心职责：
// 1. 维护每个用户的活跃连接计数（同一账号可多端同时在线）
// 2. 对离线转换做防抖：断开后的宽限期内重连不会产生 OFFLINE/ONLINE 抖动
// 3. 状态变更只推送给与当事人存在有效会话的对端，不做全局广播
package presence

import (
	"sync"
	"time"

	"pulse_chat_server/internal/dao/mysql"
	"pulse_chat_server/internal/dto/respond"
	"pulse_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// 对端计算时单次拉取会话数上限
const partnerQueryLimit = 1000

// Pusher 出站推送接口（消费方定义的最小接口）
// 由实时传输层实现，投递失败在实现内部吞掉并记录
type Pusher interface {
	SendToUser(userId string, event respond.WsEventRespond)
}

// Tracker 在线状态跟踪器
// sessions 与 timers 是整个核心里唯一被多个并发事件上下文修改的状态，
// 全部读写都在同一把互斥锁内完成：
//   - 计数的读-改-写是一步原子操作
//   - "仅在无待定定时器时调度"的检查-后-执行同样在锁内，杜绝重复定时器
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]int         // userId -> 活跃连接数
	timers   map[string]*time.Timer // userId -> 待定的离线防抖定时器（每用户至多一个）

	grace            time.Duration
	conversationRepo mysql.ConversationRepository
	pusher           Pusher
}

// NewTracker 创建在线状态跟踪器
// grace 为离线防抖宽限期
func NewTracker(conversationRepo mysql.ConversationRepository, pusher Pusher, grace time.Duration) *Tracker {
	return &Tracker{
		sessions:         make(map[string]int),
		timers:           make(map[string]*time.Timer),
		grace:            grace,
		conversationRepo: conversationRepo,
		pusher:           pusher,
	}
}

// OnConnect 处理一次连接建立
// 取消待定的离线定时器（宽限期内重连不产生抖动）；
// 计数 0→1 时立即向会话对端广播 ONLINE
func (t *Tracker) OnConnect(userId string) {
	t.mu.Lock()
	if timer, ok := t.timers[userId]; ok {
		timer.Stop()
		delete(t.timers, userId)
	}
	t.sessions[userId]++
	cameOnline := t.sessions[userId] == 1
	t.mu.Unlock()

	zap.L().Debug("presence connect",
		zap.String("user_id", userId),
		zap.Bool("came_online", cameOnline),
	)

	if cameOnline {
		t.broadcastStatus(userId, respond.StatusOnline)
	}
}

// OnDisconnect 处理一次连接断开
// 计数减一（下限 0）；降到 0 且无待定定时器时调度唯一一个防抖定时器。
// 定时器触发时重新校验计数仍为 0 才广播 OFFLINE——OnConnect 的取消是第一道
// 防线，这里的复查是针对"减到 0 与重新连上并发发生"竞态的第二道防线
func (t *Tracker) OnDisconnect(userId string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessions[userId] > 0 {
		t.sessions[userId]--
	}
	if t.sessions[userId] > 0 {
		return // 还有其他端在线
	}
	delete(t.sessions, userId)

	if _, pending := t.timers[userId]; pending {
		return // 已有待定定时器，不重复调度
	}
	t.timers[userId] = time.AfterFunc(t.grace, func() {
		t.fireOffline(userId)
	})
}

// fireOffline 防抖定时器回调
// 清除待定标记并复查计数，期间重新上线则本次转换作废
func (t *Tracker) fireOffline(userId string) {
	t.mu.Lock()
	delete(t.timers, userId)
	if t.sessions[userId] > 0 {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.broadcastStatus(userId, respond.StatusOffline)
}

// IsOnline 返回用户当前是否在线（活跃连接数 > 0）
func (t *Tracker) IsOnline(userId string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[userId] > 0
}

// Snapshot 按需重建请求者对所有会话对端状态的视图
// 用于连接建立或新会话创建时的补偿推送，不等待下一次状态变更
func (t *Tracker) Snapshot(userId string) {
	partners, err := t.partnersOf(userId)
	if err != nil {
		zap.L().Error("查询会话对端失败", zap.String("user_id", userId), zap.Error(err))
		return
	}

	now := time.Now().Format(time.RFC3339)
	for _, partner := range partners {
		status := respond.StatusOffline
		if t.IsOnline(partner) {
			status = respond.StatusOnline
		}
		t.pusher.SendToUser(userId, respond.WsEventRespond{
			Event: respond.WsEventPresence,
			Data: respond.PresenceEventRespond{
				SubjectUserId: partner,
				Status:        status,
				Timestamp:     now,
			},
		})
	}
}

// broadcastStatus 向当事人的所有会话对端广播状态变更
func (t *Tracker) broadcastStatus(userId, status string) {
	partners, err := t.partnersOf(userId)
	if err != nil {
		zap.L().Error("查询会话对端失败",
			zap.String("user_id", userId),
			zap.String("status", status),
			zap.Error(err),
		)
		return
	}

	zap.L().Info("presence broadcast",
		zap.String("user_id", userId),
		zap.String("status", status),
		zap.Int("partners", len(partners)),
	)

	event := respond.WsEventRespond{
		Event: respond.WsEventPresence,
		Data: respond.PresenceEventRespond{
			SubjectUserId: userId,
			Status:        status,
			Timestamp:     time.Now().Format(time.RFC3339),
		},
	}
	for _, partner := range partners {
		t.pusher.SendToUser(partner, event)
	}
}

// partnersOf 计算用户全部有效会话的去重对端列表
func (t *Tracker) partnersOf(userId string) ([]string, error) {
	conversations, err := t.conversationRepo.FindActiveByUser(userId, partnerQueryLimit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.GetCode(err), "查询用户会话失败")
	}

	seen := make(map[string]struct{}, len(conversations))
	partners := make([]string, 0, len(conversations))
	for i := range conversations {
		partner := conversations[i].OtherParty(userId)
		if _, ok := seen[partner]; ok {
			continue
		}
		seen[partner] = struct{}{}
		partners = append(partners, partner)
	}
	return partners, nil
}
