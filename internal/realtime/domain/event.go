package domain

// Action websocket request action
type Action string

const (
	// StatusUpdate websocket action status_update (client self-reports online/offline)
	StatusUpdate Action = "status_update"
	// JoinGroup websocket action join_group
	JoinGroup Action = "join_group"
	// Typing websocket action typing (1 on 1)
	Typing Action = "typing"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// MessageRead websocket action message_read
	MessageRead Action = "message_read"
	// MessageDelivered websocket action message_delivered
	MessageDelivered Action = "message_delivered"
	// MarkConversationRead websocket action mark_conversation_read
	MarkConversationRead Action = "mark_conversation_read"
	// GroupTyping websocket action group_typing
	GroupTyping Action = "group_typing"
	// GroupMessageRead websocket action group_message_read
	GroupMessageRead Action = "group_message_read"
)

// Event outbound websocket event name
type Event string

const (
	// EventNewMessage push a chat message to its receiver
	EventNewMessage Event = "new_message"
	// EventDeliveryStatus tell the sender a message reached the receiver
	EventDeliveryStatus Event = "message_delivery_status"
	// EventReadReceipt tell the sender a message was read
	EventReadReceipt Event = "message_read_receipt"
	// EventUnreadRefresh tell a user to recount their unread badge
	EventUnreadRefresh Event = "unread_count_refresh"
	// EventUserStatus presence change of any user
	EventUserStatus Event = "user_status_update"
	// EventUserTyping 1 on 1 typing indicator
	EventUserTyping Event = "user_typing"
	// EventGroupTyping group typing indicator
	EventGroupTyping Event = "user_typing_in_group"
	// EventGroupMessageRead group read marker announcement
	EventGroupMessageRead Event = "group_message_read_status"
)

// WSRequest websocket Request
type WSRequest struct {
	Action     string       `json:"action"`
	State      string       `json:"state,omitempty"`
	GroupID    string       `json:"group_id,omitempty"`
	ReceiverID string       `json:"receiver_id,omitempty"`
	SenderID   string       `json:"sender_id,omitempty"`
	MessageID  string       `json:"message_id,omitempty"`
	Message    *ChatMessage `json:"message,omitempty"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
