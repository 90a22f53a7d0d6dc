package domain

import "time"

// PresenceState definition user online state
type PresenceState string

const (
	// StateOnline user has a live connection (or self-reported online)
	StateOnline PresenceState = "online"
	// StateOffline user has no live connection (or self-reported offline)
	StateOffline PresenceState = "offline"
)

// Valid check the state is one of the two known values
func (s PresenceState) Valid() bool {
	return s == StateOnline || s == StateOffline
}

// PresenceStatus is a user's last known state.
// Invariant: State == online => LastSeenAt == nil,
// State == offline => LastSeenAt records the moment of transition.
type PresenceStatus struct {
	UserID     string        `json:"user_id"`
	State      PresenceState `json:"state"`
	LastSeenAt *time.Time    `json:"last_seen_at,omitempty"`
}
