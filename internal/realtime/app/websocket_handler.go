package app

import (
	"context"
	"encoding/json"
	"time"

	"community_social_service/internal/realtime/domain"
	"community_social_service/pkg/logger"
	"community_social_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RealtimeWebsocketHandler is the entry point for every live connection.
type RealtimeWebsocketHandler struct {
	registry *ConnectionRegistry
	presence *PresenceTracker
	delivery *DeliveryUseCase
	fanout   *GroupFanout
}

// NewRealtimeWebsocketHandler create RealtimeWebsocketHandler
func NewRealtimeWebsocketHandler(
	registry *ConnectionRegistry,
	presence *PresenceTracker,
	delivery *DeliveryUseCase,
	fanout *GroupFanout,
) *RealtimeWebsocketHandler {
	return &RealtimeWebsocketHandler{
		registry: registry,
		presence: presence,
		delivery: delivery,
		fanout:   fanout,
	}
}

// HandleConnection own one websocket from handshake to close:
// register handle, flip presence online, flush the pending queue, then
// dispatch inbound events until the transport reports a disconnect.
func (h *RealtimeWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenUser := conn.Locals(middlewares.TokenUserID)
	userID, ok := tokenUser.(string)
	if !ok || userID == "" {
		// Middleware rejects before the upgrade; this only fires when the
		// route is wired without it.
		logger.Log.Warn("websocket without resolved identity, closing")
		conn.Close()
		return
	}
	logger.Log.Info("websocket open", zap.String("userID", userID))

	connID := uuid.New().String()
	client := NewClient(connID, userID, conn)

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		conn.Close()
		cancel()
		h.fanout.DropUser(userID, connID)
		// A faster reconnect may already own the registry slot; only the
		// handle that still owns it flips presence offline.
		if h.registry.Unregister(userID, connID) {
			h.presence.SetStatus(ctx, userID, domain.StateOffline)
		}
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("received pong", zap.String("userID", userID))
		return nil
	})

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	h.registry.Register(client)
	h.presence.SetStatus(ctx, userID, domain.StateOnline)
	h.delivery.FlushPending(userID)

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					logger.Log.Errorf("ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Info("connection closed", zap.String("userID", userID))
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, ctxClose, client, mt, message)
	}
}

func (h *RealtimeWebsocketHandler) execWebsocketAction(ctx, ctxClose context.Context, client *Client, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, ctxClose, client, msg)
	default:
		h.sendError(client, "unknown message type")
	}
}

func (h *RealtimeWebsocketHandler) textMessageAction(ctx, ctxClose context.Context, client *Client, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err, zap.String("userID", client.UserID))
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch domain.Action(req.Action) {
	// client self-reports online/offline (e.g. invisible mode)
	case domain.StatusUpdate:
		state := domain.PresenceState(req.State)
		if !state.Valid() {
			resp.Error = "unknown presence state"
		} else {
			h.presence.SetStatus(ctx, client.UserID, state)
			resp.Success = true
		}

	// subscribe this connection to the group topic
	case domain.JoinGroup:
		if err := h.fanout.JoinGroup(ctxClose, req.GroupID, client); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["group_id"] = req.GroupID
		}

	// 1 on 1 typing indicator, no persistence
	case domain.Typing:
		if peer := h.registry.Lookup(req.ReceiverID); peer != nil {
			peer.Send(domain.WSResponse{
				Action:  string(domain.EventUserTyping),
				Success: true,
				Payload: map[string]interface{}{"user_id": client.UserID},
			})
		}
		resp.Success = true

	// the REST layer already persisted the record; deliver it live or queue
	case domain.SendMessage:
		if req.Message != nil {
			req.Message.SenderID = client.UserID
		}
		h.delivery.Deliver(ctx, req.Message)
		resp.Success = true

	case domain.MessageRead:
		h.delivery.AcknowledgeRead(ctx, req.MessageID, req.SenderID, client.UserID)
		resp.Success = true

	case domain.MessageDelivered:
		h.delivery.AcknowledgeDelivered(ctx, req.MessageID, req.SenderID)
		resp.Success = true

	case domain.MarkConversationRead:
		h.delivery.MarkConversationRead(ctx, req.SenderID, client.UserID)
		resp.Success = true

	case domain.GroupTyping:
		h.fanout.TypingInGroup(req.GroupID, client.UserID)
		resp.Success = true

	case domain.GroupMessageRead:
		h.fanout.ReadReceiptInGroup(req.GroupID, req.MessageID, client.UserID)
		resp.Success = true

	default:
		h.sendError(client, "unknown action")
		return
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err",
			zap.String("userID", client.UserID),
			zap.String("action", req.Action),
			zap.String("err", resp.Error))
	}
	client.Send(resp)
}

func (h *RealtimeWebsocketHandler) sendError(client *Client, errorMsg string) {
	client.Send(domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
	})
}
