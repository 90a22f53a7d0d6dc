package app

import (
	"context"
	"sync"
	"time"

	"community_social_service/internal/realtime/domain"
	"community_social_service/internal/realtime/repository"
	"community_social_service/pkg/logger"

	"go.uber.org/zap"
)

// PresenceTracker keeps the last known online/offline state per user.
// The in-memory map is the serving copy; every change is also pushed to the
// user-identity store best-effort (a write failure is logged, not retried,
// never surfaced to the caller).
type PresenceTracker struct {
	mu       sync.RWMutex
	statuses map[string]domain.PresenceStatus

	registry *ConnectionRegistry
	users    repository.UserStatusRepository
}

// NewPresenceTracker create a PresenceTracker
func NewPresenceTracker(registry *ConnectionRegistry, users repository.UserStatusRepository) *PresenceTracker {
	return &PresenceTracker{
		statuses: make(map[string]domain.PresenceStatus),
		registry: registry,
		users:    users,
	}
}

// SetStatus record the transition, broadcast it to every connected socket
// and persist it asynchronously. online clears last_seen_at, offline stamps
// it with the moment of transition.
func (t *PresenceTracker) SetStatus(ctx context.Context, userID string, state domain.PresenceState) {
	if !state.Valid() {
		logger.Log.Warn("presence ignored unknown state",
			zap.String("userID", userID), zap.String("state", string(state)))
		return
	}

	var lastSeen *time.Time
	if state == domain.StateOffline {
		now := time.Now().UTC()
		lastSeen = &now
	}

	status := domain.PresenceStatus{
		UserID:     userID,
		State:      state,
		LastSeenAt: lastSeen,
	}

	t.mu.Lock()
	t.statuses[userID] = status
	t.mu.Unlock()

	t.registry.Broadcast(domain.WSResponse{
		Action:  string(domain.EventUserStatus),
		Success: true,
		Payload: map[string]interface{}{
			"user_id":      userID,
			"state":        string(state),
			"last_seen_at": lastSeen,
		},
	})

	if t.users != nil {
		go func() {
			if err := t.users.UpdateStatus(context.Background(), userID, state, lastSeen); err != nil {
				logger.Log.Errorf("persist presence error:", err, zap.String("userID", userID))
			}
		}()
	}
}

// GetStatus return the in-memory value; users never seen by this process
// default to offline with no last-seen timestamp (no storage round trip).
func (t *PresenceTracker) GetStatus(userID string) domain.PresenceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if status, ok := t.statuses[userID]; ok {
		return status
	}
	return domain.PresenceStatus{
		UserID: userID,
		State:  domain.StateOffline,
	}
}
