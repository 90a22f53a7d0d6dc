package app

import (
	"context"
	"time"

	"community_social_service/internal/realtime/domain"
	"community_social_service/internal/realtime/repository"
	"community_social_service/pkg/logger"

	"go.uber.org/zap"
)

// DeliveryUseCase drives the lifecycle of a single direct message: attempt
// live delivery or queue for later, and record delivery/read state on the
// persisted record.
//
// Every store write here is best-effort: the real-time signal fires first
// and a persistence failure is logged and swallowed, so the UI stays
// responsive even when the durable record lags.
type DeliveryUseCase struct {
	registry *ConnectionRegistry
	queue    *PendingQueue
	msgRepo  repository.MessageRepository
}

// NewDeliveryUseCase create a DeliveryUseCase
func NewDeliveryUseCase(registry *ConnectionRegistry, queue *PendingQueue, msgRepo repository.MessageRepository) *DeliveryUseCase {
	return &DeliveryUseCase{
		registry: registry,
		queue:    queue,
		msgRepo:  msgRepo,
	}
}

// NewMessageFrame the outbound frame carrying one chat message
func NewMessageFrame(msg domain.ChatMessage) domain.WSResponse {
	payload := map[string]interface{}{
		"message_id":  msg.ID,
		"sender_id":   msg.SenderID,
		"receiver_id": msg.ReceiverID,
		"content":     msg.Content,
		"timestamp":   msg.Timestamp,
	}
	if msg.GroupID != "" {
		payload["group_id"] = msg.GroupID
	}
	return domain.WSResponse{
		Action:  string(domain.EventNewMessage),
		Success: true,
		Payload: payload,
	}
}

// Deliver attempt real-time delivery of a freshly created message record.
// A payload without a persisted id or a receiver is a malformed client
// send; it is dropped silently (logged only, never surfaced to the peer).
func (uc *DeliveryUseCase) Deliver(ctx context.Context, msg *domain.ChatMessage) {
	if msg == nil || msg.ID == "" || msg.ReceiverID == "" {
		logger.Log.Warn("deliver dropped malformed message payload")
		return
	}

	receiver := uc.registry.Lookup(msg.ReceiverID)
	if receiver == nil {
		uc.queue.Enqueue(msg.ReceiverID, *msg)
		return
	}

	// Self-sends are not echoed back over the delivery path; the REST
	// response is the sender's acknowledgement.
	if msg.SenderID == msg.ReceiverID {
		return
	}

	receiver.Send(NewMessageFrame(*msg))

	if sender := uc.registry.Lookup(msg.SenderID); sender != nil {
		sender.Send(domain.WSResponse{
			Action:  string(domain.EventDeliveryStatus),
			Success: true,
			Payload: map[string]interface{}{
				"message_id": msg.ID,
				"status":     "delivered",
			},
		})
	}

	if err := uc.msgRepo.MarkDelivered(ctx, msg.ID, time.Now().UTC()); err != nil {
		logger.Log.Errorf("persist delivered error:", err, zap.String("messageID", msg.ID))
	}
}

// AcknowledgeDelivered record a receiver-side delivery confirmation and
// notify the sender's channel of the status change.
func (uc *DeliveryUseCase) AcknowledgeDelivered(ctx context.Context, messageID, senderID string) {
	if messageID == "" || senderID == "" {
		logger.Log.Warn("delivered ack dropped malformed payload")
		return
	}

	if err := uc.msgRepo.MarkDelivered(ctx, messageID, time.Now().UTC()); err != nil {
		logger.Log.Errorf("persist delivered error:", err, zap.String("messageID", messageID))
	}

	if sender := uc.registry.Lookup(senderID); sender != nil {
		sender.Send(domain.WSResponse{
			Action:  string(domain.EventDeliveryStatus),
			Success: true,
			Payload: map[string]interface{}{
				"message_id": messageID,
				"status":     "delivered",
			},
		})
	}
}

// AcknowledgeRead record that readerID opened the message: the record is
// marked read (and thereby delivered), the sender gets a read receipt and
// the reader's own connection gets an unread-count refresh.
func (uc *DeliveryUseCase) AcknowledgeRead(ctx context.Context, messageID, senderID, readerID string) {
	if messageID == "" || senderID == "" {
		logger.Log.Warn("read ack dropped malformed payload")
		return
	}

	readAt := time.Now().UTC()
	if err := uc.msgRepo.MarkRead(ctx, messageID, readAt); err != nil {
		logger.Log.Errorf("persist read error:", err, zap.String("messageID", messageID))
	}

	if sender := uc.registry.Lookup(senderID); sender != nil {
		sender.Send(domain.WSResponse{
			Action:  string(domain.EventReadReceipt),
			Success: true,
			Payload: map[string]interface{}{
				"message_id": messageID,
				"reader_id":  readerID,
				"read_at":    readAt,
			},
		})
	}

	if reader := uc.registry.Lookup(readerID); reader != nil {
		reader.Send(domain.WSResponse{
			Action:  string(domain.EventUnreadRefresh),
			Success: true,
		})
	}
}

// MarkConversationRead bulk-mark every unread message from peerID to selfID
// as read and delivered, notify the peer and refresh self's unread count.
func (uc *DeliveryUseCase) MarkConversationRead(ctx context.Context, peerID, selfID string) {
	if peerID == "" || selfID == "" {
		logger.Log.Warn("conversation read dropped malformed payload")
		return
	}

	readAt := time.Now().UTC()
	updated, err := uc.msgRepo.MarkConversationRead(ctx, peerID, selfID, readAt)
	if err != nil {
		logger.Log.Errorf("persist conversation read error:", err,
			zap.String("peerID", peerID), zap.String("selfID", selfID))
	}

	if peer := uc.registry.Lookup(peerID); peer != nil {
		peer.Send(domain.WSResponse{
			Action:  string(domain.EventReadReceipt),
			Success: true,
			Payload: map[string]interface{}{
				"reader_id": selfID,
				"read_at":   readAt,
				"updated":   updated,
			},
		})
	}

	if self := uc.registry.Lookup(selfID); self != nil {
		self.Send(domain.WSResponse{
			Action:  string(domain.EventUnreadRefresh),
			Success: true,
		})
	}
}

// FlushPending re-emit every queued message verbatim to the newly live
// handle. Fire-and-forget: no ack is waited on and no delivery state is
// persisted on this path (the original Deliver call already recorded it,
// or never could).
func (uc *DeliveryUseCase) FlushPending(userID string) {
	msgs := uc.queue.Drain(userID)
	if len(msgs) == 0 {
		return
	}

	client := uc.registry.Lookup(userID)
	if client == nil {
		// Handle vanished between register and flush; the messages were
		// already drained, matching the accepted always-offline gap.
		logger.Log.Warn("flush found no live handle", zap.String("userID", userID))
		return
	}

	for _, msg := range msgs {
		client.Send(NewMessageFrame(msg))
	}
	logger.Log.Info("flushed pending messages",
		zap.String("userID", userID), zap.Int("count", len(msgs)))
}
