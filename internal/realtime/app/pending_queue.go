package app

import (
	"sync"

	"community_social_service/internal/realtime/domain"
)

// PendingQueue buffers messages addressed to users with no live handle.
// FIFO per recipient, no cross-recipient ordering, no size bound (the
// buffer is process-local and dies with the process).
type PendingQueue struct {
	mu      sync.Mutex
	pending map[string][]domain.ChatMessage
}

// NewPendingQueue create an empty queue
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{
		pending: make(map[string][]domain.ChatMessage),
	}
}

// Enqueue append the message to the recipient's sequence, creating it lazily
func (q *PendingQueue) Enqueue(userID string, msg domain.ChatMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[userID] = append(q.pending[userID], msg)
}

// Drain return and clear the recipient's full sequence. Called once right
// after the user's handle is (re-)registered; a second drain yields nothing.
func (q *PendingQueue) Drain(userID string) []domain.ChatMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.pending[userID]
	delete(q.pending, userID)
	return msgs
}

// Len current number of buffered messages for userID
func (q *PendingQueue) Len(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[userID])
}
