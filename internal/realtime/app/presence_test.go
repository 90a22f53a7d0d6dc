package app

import (
	"context"
	"testing"
	"time"

	"community_social_service/internal/realtime/domain"

	"github.com/stretchr/testify/assert"
)

func TestPresenceInvariantHoldsAfterEveryTransition(t *testing.T) {
	ctx := context.Background()
	tracker := NewPresenceTracker(NewConnectionRegistry(), nil)

	tracker.SetStatus(ctx, "user-a", domain.StateOnline)
	status := tracker.GetStatus("user-a")
	assert.Equal(t, domain.StateOnline, status.State)
	assert.Nil(t, status.LastSeenAt)

	tracker.SetStatus(ctx, "user-a", domain.StateOffline)
	status = tracker.GetStatus("user-a")
	assert.Equal(t, domain.StateOffline, status.State)
	assert.NotNil(t, status.LastSeenAt)
	assert.WithinDuration(t, time.Now().UTC(), *status.LastSeenAt, 5*time.Second)

	// flipping back online clears the timestamp again
	tracker.SetStatus(ctx, "user-a", domain.StateOnline)
	status = tracker.GetStatus("user-a")
	assert.Equal(t, domain.StateOnline, status.State)
	assert.Nil(t, status.LastSeenAt)
}

func TestPresenceUnknownUserDefaultsOffline(t *testing.T) {
	tracker := NewPresenceTracker(NewConnectionRegistry(), nil)

	status := tracker.GetStatus("never-seen")
	assert.Equal(t, domain.StateOffline, status.State)
	assert.Nil(t, status.LastSeenAt)
}

func TestPresenceIgnoresUnknownState(t *testing.T) {
	ctx := context.Background()
	tracker := NewPresenceTracker(NewConnectionRegistry(), nil)

	tracker.SetStatus(ctx, "user-a", domain.StateOnline)
	tracker.SetStatus(ctx, "user-a", domain.PresenceState("away"))

	assert.Equal(t, domain.StateOnline, tracker.GetStatus("user-a").State)
}

func TestPresencePersistsBestEffort(t *testing.T) {
	ctx := context.Background()
	store := &memUserStatusStore{}
	tracker := NewPresenceTracker(NewConnectionRegistry(), store)

	tracker.SetStatus(ctx, "user-a", domain.StateOffline)

	assert.Eventually(t, func() bool { return store.Count() == 1 }, time.Second, 10*time.Millisecond)
	last := store.Last()
	assert.Equal(t, "user-a", last.UserID)
	assert.Equal(t, domain.StateOffline, last.State)
	assert.NotNil(t, last.LastSeenAt)
}

func TestPresencePersistFailureDoesNotAffectTracker(t *testing.T) {
	ctx := context.Background()
	store := &memUserStatusStore{err: assert.AnError}
	tracker := NewPresenceTracker(NewConnectionRegistry(), store)

	tracker.SetStatus(ctx, "user-a", domain.StateOnline)

	assert.Equal(t, domain.StateOnline, tracker.GetStatus("user-a").State)
}

func TestPresenceBroadcastsToAllConnectedSockets(t *testing.T) {
	ctx := context.Background()
	registry := NewConnectionRegistry()
	tracker := NewPresenceTracker(registry, nil)

	connA := newFakeConn()
	connB := newFakeConn()
	registry.Register(NewClient("conn-a", "user-a", connA))
	registry.Register(NewClient("conn-b", "user-b", connB))

	tracker.SetStatus(ctx, "user-a", domain.StateOnline)

	// process-wide broadcast: every socket hears it, relevance is not scoped
	for _, conn := range []*fakeConn{connA, connB} {
		frames := conn.FramesByAction(string(domain.EventUserStatus))
		assert.Len(t, frames, 1)
		assert.Equal(t, "user-a", frames[0].Payload["user_id"])
		assert.Equal(t, string(domain.StateOnline), frames[0].Payload["state"])
	}
}
