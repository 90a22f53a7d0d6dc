package router

import (
	"context"

	"community_social_service/internal/realtime/app"
	"community_social_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mount the authenticated realtime endpoint
func RegisterRoutes(r *fiber.App, realtimeWebsocket *app.RealtimeWebsocketHandler) {
	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		realtimeWebsocket.HandleConnection(context.Background(), c)
	}))
}
