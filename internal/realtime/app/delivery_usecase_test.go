package app

import (
	"context"
	"testing"

	"community_social_service/internal/realtime/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newMessage(id, sender, receiver string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "hello",
		Timestamp:  1700000000,
	}
}

// offline receiver: the message lands in the queue, nothing is emitted and
// the persisted record stays undelivered
func TestDeliverQueuesForOfflineReceiver(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	queue := NewPendingQueue()
	store := newMemMessageStore(newMessage("m1", "user-a", "user-b"))
	uc := NewDeliveryUseCase(registry, queue, store)

	connA := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))

	msg := newMessage("m1", "user-a", "user-b")
	uc.Deliver(ctx, &msg)

	assert.Equal(t, 1, queue.Len("user-b"))
	assert.Equal(t, 0, connA.CountAction(string(domain.EventNewMessage)))
	assert.False(t, store.Get("m1").IsDelivered)
}

// live receiver: exactly one new_message to the receiver, one delivery
// status to the sender, nothing queued, record marked delivered
func TestDeliverLiveSkipsQueue(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	queue := NewPendingQueue()
	store := newMemMessageStore(newMessage("m2", "user-a", "user-b"))
	uc := NewDeliveryUseCase(registry, queue, store)

	connA := newFakeConn()
	connB := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))
	registry.Register(NewClient("conn-b", "user-b", connB))

	msg := newMessage("m2", "user-a", "user-b")
	uc.Deliver(ctx, &msg)

	newMsgs := connB.FramesByAction(string(domain.EventNewMessage))
	assert.Len(t, newMsgs, 1)
	assert.Equal(t, "m2", newMsgs[0].Payload["message_id"])

	statuses := connA.FramesByAction(string(domain.EventDeliveryStatus))
	assert.Len(t, statuses, 1)
	assert.Equal(t, "m2", statuses[0].Payload["message_id"])
	assert.Equal(t, "delivered", statuses[0].Payload["status"])

	assert.Equal(t, 0, queue.Len("user-b"))

	record := store.Get("m2")
	assert.True(t, record.IsDelivered)
	assert.NotNil(t, record.DeliveredAt)
}

// sender == receiver: nothing is echoed over the delivery path
func TestDeliverNoSelfEcho(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	queue := NewPendingQueue()
	store := newMemMessageStore(newMessage("m3", "user-a", "user-a"))
	uc := NewDeliveryUseCase(registry, queue, store)

	connA := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))

	msg := newMessage("m3", "user-a", "user-a")
	uc.Deliver(ctx, &msg)

	assert.Equal(t, 0, connA.CountAction(string(domain.EventNewMessage)))
	assert.Equal(t, 0, connA.CountAction(string(domain.EventDeliveryStatus)))
	assert.Equal(t, 0, queue.Len("user-a"))
}

// a payload without a persisted id or receiver is a silent no-op
func TestDeliverMalformedPayloadNoOp(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	queue := NewPendingQueue()
	uc := NewDeliveryUseCase(registry, queue, newMemMessageStore())

	connB := newFakeConn()
	registry.Register(NewClient("conn-b", "user-b", connB))

	uc.Deliver(ctx, nil)

	noID := domain.ChatMessage{SenderID: "user-a", ReceiverID: "user-b"}
	uc.Deliver(ctx, &noID)

	noReceiver := domain.ChatMessage{ID: "m4", SenderID: "user-a"}
	uc.Deliver(ctx, &noReceiver)

	assert.Empty(t, connB.Frames())
	assert.Equal(t, 0, queue.Len("user-b"))
}

// reconnect flush: the queued message is re-emitted exactly once with no
// persistence side effect
func TestFlushPendingEmitsQueuedMessagesOnce(t *testing.T) {
	registry := NewConnectionRegistry()
	queue := NewPendingQueue()
	store := newMemMessageStore(newMessage("m1", "user-a", "user-b"))
	uc := NewDeliveryUseCase(registry, queue, store)

	queue.Enqueue("user-b", newMessage("m1", "user-a", "user-b"))

	connB := newFakeConn()
	registry.Register(NewClient("conn-b", "user-b", connB))
	uc.FlushPending("user-b")

	newMsgs := connB.FramesByAction(string(domain.EventNewMessage))
	assert.Len(t, newMsgs, 1)
	assert.Equal(t, "m1", newMsgs[0].Payload["message_id"])

	// queue is empty, a second flush emits nothing
	uc.FlushPending("user-b")
	assert.Equal(t, 1, connB.CountAction(string(domain.EventNewMessage)))

	// the flush path never touches the store
	assert.False(t, store.Get("m1").IsDelivered)
}

// read ack: record is read AND delivered, the sender gets a receipt, the
// reader gets an unread-count refresh
func TestAcknowledgeReadMarksDeliveredToo(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	store := newMemMessageStore(newMessage("m2", "user-a", "user-b"))
	uc := NewDeliveryUseCase(registry, NewPendingQueue(), store)

	connA := newFakeConn()
	connB := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))
	registry.Register(NewClient("conn-b", "user-b", connB))

	uc.AcknowledgeRead(ctx, "m2", "user-a", "user-b")

	record := store.Get("m2")
	assert.True(t, record.IsRead)
	assert.NotNil(t, record.ReadAt)
	assert.True(t, record.IsDelivered)

	receipts := connA.FramesByAction(string(domain.EventReadReceipt))
	assert.Len(t, receipts, 1)
	assert.Equal(t, "m2", receipts[0].Payload["message_id"])
	assert.Equal(t, "user-b", receipts[0].Payload["reader_id"])

	assert.Equal(t, 1, connB.CountAction(string(domain.EventUnreadRefresh)))
}

func TestAcknowledgeDelivered(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	store := newMemMessageStore(newMessage("m5", "user-a", "user-b"))
	uc := NewDeliveryUseCase(registry, NewPendingQueue(), store)

	connA := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))

	uc.AcknowledgeDelivered(ctx, "m5", "user-a")

	assert.True(t, store.Get("m5").IsDelivered)
	statuses := connA.FramesByAction(string(domain.EventDeliveryStatus))
	assert.Len(t, statuses, 1)
	assert.Equal(t, "m5", statuses[0].Payload["message_id"])
}

func TestMarkConversationRead(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	store := newMemMessageStore(
		newMessage("m6", "user-a", "user-b"),
		newMessage("m7", "user-a", "user-b"),
		newMessage("m8", "user-b", "user-a"),
	)
	uc := NewDeliveryUseCase(registry, NewPendingQueue(), store)

	connA := newFakeConn()
	connB := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))
	registry.Register(NewClient("conn-b", "user-b", connB))

	uc.MarkConversationRead(ctx, "user-a", "user-b")

	assert.True(t, store.Get("m6").IsRead)
	assert.True(t, store.Get("m6").IsDelivered)
	assert.True(t, store.Get("m7").IsRead)
	// the opposite direction is untouched
	assert.False(t, store.Get("m8").IsRead)

	receipts := connA.FramesByAction(string(domain.EventReadReceipt))
	assert.Len(t, receipts, 1)
	assert.Equal(t, "user-b", receipts[0].Payload["reader_id"])

	assert.Equal(t, 1, connB.CountAction(string(domain.EventUnreadRefresh)))
}

// a failing store write never blocks the real-time signal
func TestDeliverPersistFailureStillEmits(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	mockStore := new(MockMessageRepository)
	mockStore.On("MarkDelivered", ctx, "m9", mock.Anything).Return(assert.AnError)
	uc := NewDeliveryUseCase(registry, NewPendingQueue(), mockStore)

	connB := newFakeConn()
	registry.Register(NewClient("conn-b", "user-b", connB))

	msg := newMessage("m9", "user-a", "user-b")
	uc.Deliver(ctx, &msg)

	assert.Equal(t, 1, connB.CountAction(string(domain.EventNewMessage)))
	mockStore.AssertExpectations(t)
}
