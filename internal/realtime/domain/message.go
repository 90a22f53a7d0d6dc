package domain

import "time"

// ChatMessage is the persisted message record. The REST layer creates it
// before the realtime core is invoked; this core only toggles the delivery
// state fields (is_delivered / is_read and their timestamps).
type ChatMessage struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	SenderID    string     `bson:"sender_id" json:"sender_id"`
	ReceiverID  string     `bson:"receiver_id" json:"receiver_id"`
	GroupID     string     `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Content     string     `bson:"content" json:"content"`
	Timestamp   int64      `bson:"timestamp" json:"timestamp"`
	IsDelivered bool       `bson:"is_delivered" json:"is_delivered"`
	IsRead      bool       `bson:"is_read" json:"is_read"`
	DeliveredAt *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ReadAt      *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
