package app

import (
	"context"
	"fmt"
	"sync"

	"community_social_service/internal/realtime/domain"
	"community_social_service/internal/realtime/repository"
	errprocess "community_social_service/pkg/err"
	"community_social_service/pkg/logger"

	"go.uber.org/zap"
)

// GroupFanout broadcasts messages and ephemeral events to group
// conversations. Delivery is dual-path: a process-wide topic (one redis
// channel per group) reaches every connection that joined the group, and a
// direct identity-keyed emit covers members who never joined the topic
// (e.g. freshly added ones). Members subscribed to the topic are excluded
// from the direct emit, so each live member receives a broadcast exactly
// once.
type GroupFanout struct {
	registry *ConnectionRegistry
	groups   repository.GroupRepository
	pubsub   repository.PubSub

	mu         sync.RWMutex
	topicSubs  map[string]map[string]string   // groupID -> userID -> owning connID
	connTopics map[string]map[string]struct{} // connID -> groupIDs joined
}

// NewGroupFanout create a GroupFanout
func NewGroupFanout(registry *ConnectionRegistry, groups repository.GroupRepository, pubsub repository.PubSub) *GroupFanout {
	return &GroupFanout{
		registry:   registry,
		groups:     groups,
		pubsub:     pubsub,
		topicSubs:  make(map[string]map[string]string),
		connTopics: make(map[string]map[string]struct{}),
	}
}

// JoinGroup subscribe the client's connection to the group topic. The
// subscription lives until ctx is cancelled (connection close). Membership
// itself is validated by the REST layer before join_group is accepted.
func (f *GroupFanout) JoinGroup(ctx context.Context, groupID string, client *Client) error {
	err := f.pubsub.Subscribe(ctx, repository.GroupChannel(groupID), func(resp domain.WSResponse) {
		// Typing indicators never echo back to the typer.
		if resp.Action == string(domain.EventGroupTyping) {
			if origin, ok := resp.Payload["user_id"].(string); ok && origin == client.UserID {
				return
			}
		}
		client.Send(resp)
	})
	if err != nil {
		return errprocess.Set(fmt.Sprintf("subscribe group topic %s failed: %v", groupID, err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topicSubs[groupID] == nil {
		f.topicSubs[groupID] = make(map[string]string)
	}
	f.topicSubs[groupID][client.UserID] = client.ConnID
	if f.connTopics[client.ConnID] == nil {
		f.connTopics[client.ConnID] = make(map[string]struct{})
	}
	f.connTopics[client.ConnID][groupID] = struct{}{}
	return nil
}

// DropUser forget the topic subscriptions held by one connection. Keyed by
// connID so a stale close cannot erase the bookkeeping of a faster
// reconnect that already re-joined; the redis-side subscriptions die with
// the connection context.
func (f *GroupFanout) DropUser(userID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for groupID := range f.connTopics[connID] {
		if f.topicSubs[groupID][userID] != connID {
			continue
		}
		delete(f.topicSubs[groupID], userID)
		if len(f.topicSubs[groupID]) == 0 {
			delete(f.topicSubs, groupID)
		}
	}
	delete(f.connTopics, connID)
}

func (f *GroupFanout) isSubscribed(groupID, userID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.topicSubs[groupID][userID]
	return ok
}

// BroadcastToGroup deliver one event to every member of the group: once via
// the topic for joined connections, directly via the registry for the rest.
func (f *GroupFanout) BroadcastToGroup(ctx context.Context, groupID string, event domain.Event, payload map[string]interface{}) {
	group, err := f.groups.FindGroupByID(ctx, groupID)
	if err != nil {
		logger.Log.Errorf("group lookup error:", err, zap.String("groupID", groupID))
		return
	}
	if group == nil {
		logger.Log.Warn("broadcast to unknown group", zap.String("groupID", groupID))
		return
	}

	frame := domain.WSResponse{
		Action:  string(event),
		Success: true,
		Payload: payload,
	}

	if err := f.pubsub.Publish(repository.GroupChannel(groupID), frame); err != nil {
		logger.Log.Errorf("topic publish error:", err, zap.String("groupID", groupID))
	}

	for _, member := range group.Members {
		if f.isSubscribed(groupID, member) {
			continue
		}
		if client := f.registry.Lookup(member); client != nil {
			client.Send(frame)
		}
	}
}

// TypingInGroup announce typing to the other joined members. Topic only,
// fire-and-forget, nothing persisted.
func (f *GroupFanout) TypingInGroup(groupID, userID string) {
	frame := domain.WSResponse{
		Action:  string(domain.EventGroupTyping),
		Success: true,
		Payload: map[string]interface{}{
			"group_id": groupID,
			"user_id":  userID,
		},
	}
	if err := f.pubsub.Publish(repository.GroupChannel(groupID), frame); err != nil {
		logger.Log.Errorf("typing publish error:", err, zap.String("groupID", groupID))
	}
}

// ReadReceiptInGroup announce a read marker on the group topic. The durable
// per-message read-by set is maintained by the message store owner, not
// here.
func (f *GroupFanout) ReadReceiptInGroup(groupID, messageID, readerID string) {
	frame := domain.WSResponse{
		Action:  string(domain.EventGroupMessageRead),
		Success: true,
		Payload: map[string]interface{}{
			"group_id":   groupID,
			"message_id": messageID,
			"reader_id":  readerID,
		},
	}
	if err := f.pubsub.Publish(repository.GroupChannel(groupID), frame); err != nil {
		logger.Log.Errorf("group read publish error:", err, zap.String("groupID", groupID))
	}
}
