package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MessageRepository updates the delivery-state fields of persisted messages.
// Records are created (and deleted) by the REST layer; the realtime core
// only flips booleans and timestamps. All writes are field-level $set so
// they stay safe against concurrent updates of unrelated fields.
type MessageRepository interface {
	// MarkDelivered set is_delivered / delivered_at on one message
	MarkDelivered(ctx context.Context, messageID string, at time.Time) error
	// MarkRead set is_read / read_at on one message. A message cannot be
	// read without having been received, so is_delivered is set as well.
	MarkRead(ctx context.Context, messageID string, at time.Time) error
	// MarkConversationRead bulk-update every unread message from peerID to
	// selfID as read and delivered; returns the number of records touched
	MarkConversationRead(ctx context.Context, peerID, selfID string, at time.Time) (int64, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) MarkDelivered(ctx context.Context, messageID string, at time.Time) error {
	filter := bson.M{"_id": messageID}
	update := bson.M{"$set": bson.M{
		"is_delivered": true,
		"delivered_at": at,
	}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) MarkRead(ctx context.Context, messageID string, at time.Time) error {
	filter := bson.M{"_id": messageID}
	update := bson.M{"$set": bson.M{
		"is_read":      true,
		"read_at":      at,
		"is_delivered": true,
	}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, peerID, selfID string, at time.Time) (int64, error) {
	filter := bson.M{
		"sender_id":   peerID,
		"receiver_id": selfID,
		"is_read":     false,
	}
	update := bson.M{"$set": bson.M{
		"is_read":      true,
		"read_at":      at,
		"is_delivered": true,
		"delivered_at": at,
	}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
