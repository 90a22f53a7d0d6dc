package app

import (
	"context"
	"sync"
	"time"

	"community_social_service/internal/realtime/domain"

	"github.com/stretchr/testify/mock"
)

// fakeConn in-memory Conn recording every frame written to it
type fakeConn struct {
	mu     sync.Mutex
	frames []domain.WSResponse
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v.(domain.WSResponse))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Frames copy of everything written so far
func (c *fakeConn) Frames() []domain.WSResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.WSResponse, len(c.frames))
	copy(out, c.frames)
	return out
}

// CountAction number of recorded frames with the given action
func (c *fakeConn) CountAction(action string) int {
	n := 0
	for _, f := range c.Frames() {
		if f.Action == action {
			n++
		}
	}
	return n
}

// FramesByAction recorded frames with the given action
func (c *fakeConn) FramesByAction(action string) []domain.WSResponse {
	var out []domain.WSResponse
	for _, f := range c.Frames() {
		if f.Action == action {
			out = append(out, f)
		}
	}
	return out
}

// memMessageStore stateful in-memory MessageRepository for scenario tests
type memMessageStore struct {
	mu      sync.Mutex
	records map[string]*domain.ChatMessage
}

func newMemMessageStore(msgs ...domain.ChatMessage) *memMessageStore {
	s := &memMessageStore{records: make(map[string]*domain.ChatMessage)}
	for i := range msgs {
		m := msgs[i]
		s.records[m.ID] = &m
	}
	return s
}

func (s *memMessageStore) MarkDelivered(ctx context.Context, messageID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.records[messageID]; ok {
		m.IsDelivered = true
		m.DeliveredAt = &at
	}
	return nil
}

func (s *memMessageStore) MarkRead(ctx context.Context, messageID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.records[messageID]; ok {
		m.IsRead = true
		m.ReadAt = &at
		m.IsDelivered = true
	}
	return nil
}

func (s *memMessageStore) MarkConversationRead(ctx context.Context, peerID, selfID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.records {
		if m.SenderID == peerID && m.ReceiverID == selfID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &at
			m.IsDelivered = true
			m.DeliveredAt = &at
			n++
		}
	}
	return n, nil
}

// Get snapshot of one record
func (s *memMessageStore) Get(messageID string) domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[messageID]
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// MarkDelivered mock mark delivered
func (m *MockMessageRepository) MarkDelivered(ctx context.Context, messageID string, at time.Time) error {
	args := m.Called(ctx, messageID, at)
	return args.Error(0)
}

// MarkRead mock mark read
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID string, at time.Time) error {
	args := m.Called(ctx, messageID, at)
	return args.Error(0)
}

// MarkConversationRead mock bulk conversation read
func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, peerID, selfID string, at time.Time) (int64, error) {
	args := m.Called(ctx, peerID, selfID, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockGroupRepository Mock GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

// FindGroupByID mock find group by group id
func (m *MockGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Group), args.Error(1)
	}
	return nil, args.Error(1)
}

// memUserStatusStore stateful UserStatusRepository fake. Presence persists
// in a goroutine, so reads go through the mutex.
type memUserStatusStore struct {
	mu      sync.Mutex
	updates []domain.PresenceStatus
	err     error
}

func (s *memUserStatusStore) UpdateStatus(ctx context.Context, userID string, state domain.PresenceState, lastSeenAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, domain.PresenceStatus{UserID: userID, State: state, LastSeenAt: lastSeenAt})
	return nil
}

func (s *memUserStatusStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *memUserStatusStore) Last() domain.PresenceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[len(s.updates)-1]
}

// fakePubSub in-memory PubSub with synchronous dispatch
type fakePubSub struct {
	mu   sync.Mutex
	subs map[string][]fakeSub
}

type fakeSub struct {
	ctx     context.Context
	handler func(resp domain.WSResponse)
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{subs: make(map[string][]fakeSub)}
}

func (p *fakePubSub) Publish(channel string, resp domain.WSResponse) error {
	p.mu.Lock()
	subs := append([]fakeSub(nil), p.subs[channel]...)
	p.mu.Unlock()

	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		s.handler(resp)
	}
	return nil
}

func (p *fakePubSub) Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[channel] = append(p.subs[channel], fakeSub{ctx: ctx, handler: handler})
	return nil
}
