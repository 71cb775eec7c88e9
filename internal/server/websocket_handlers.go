package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/observability"
	"mundotango/internal/repository"
	"mundotango/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// authFrameTimeout bounds how long a socket may stay open unauthenticated.
const authFrameTimeout = 10 * time.Second

// WebSocketUpgrade lets only upgrade requests reach the websocket handler.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebsocketHandler serves /ws. The first frame must be
// {"type":"auth","data":{"token":"..."}}; afterwards frames are dispatched
// by type until the connection closes.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, err := s.authenticateSocket(conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, notifications.ErrorFrame(err.Error()))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			observability.Logger.Warn("websocket registration refused",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, notifications.ErrorFrame(err.Error()))
			_ = conn.Close()
			return
		}
		client.IncomingHandler = s.dispatchFrame
		client.TrySend(notifications.MustEncode(notifications.TypeAuthSuccess, map[string]uint{"user_id": userID}))

		go client.WritePump()
		client.ReadPump()
	})
}

// authenticateSocket reads the auth frame and verifies its token.
func (s *Server) authenticateSocket(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(authFrameTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return 0, errors.New("authentication required")
	}
	env, err := notifications.Decode(raw)
	if err != nil || env.Type != notifications.TypeAuth {
		return 0, errors.New("authentication required")
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return 0, errors.New("token is required")
	}
	claims, err := s.auth.ParseToken(context.Background(), data.Token)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

// dispatchFrame handles one frame from an authenticated client.
func (s *Server) dispatchFrame(client *notifications.Client, raw []byte) {
	env, err := notifications.Decode(raw)
	if err != nil {
		client.TrySend(notifications.ErrorFrame("invalid frame"))
		return
	}
	observability.WebSocketEvents.WithLabelValues(env.Type).Inc()
	ctx := context.WithValue(context.Background(), observability.UserIDKey, client.UserID)

	switch env.Type {
	case notifications.TypePing:
		client.TrySend(notifications.MustEncode(notifications.TypePong, map[string]int64{"time": time.Now().Unix()}))

	case notifications.TypeTyping:
		var ev service.TypingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			client.TrySend(notifications.ErrorFrame("invalid typing payload"))
			return
		}
		if err := s.chatService.Typing(ctx, client.UserID, ev); err != nil {
			client.TrySend(notifications.ErrorFrame(errorMessage(err)))
		}

	case notifications.TypeNewMessage:
		var attrs repository.Attrs
		if err := json.Unmarshal(env.Data, &attrs); err != nil || attrs == nil {
			client.TrySend(notifications.ErrorFrame("invalid message payload"))
			return
		}
		admin, err := s.users.IsAdmin(ctx, client.UserID)
		if err != nil {
			client.TrySend(notifications.ErrorFrame(errorMessage(err)))
			return
		}
		// The sender receives the stored message through the room fan-out.
		if _, err := s.messages.Create(ctx, repository.Actor{ID: client.UserID, IsAdmin: admin}, attrs); err != nil {
			client.TrySend(notifications.ErrorFrame(errorMessage(err)))
		}

	case notifications.TypeAuth:
		client.TrySend(notifications.ErrorFrame("already authenticated"))

	default:
		client.TrySend(notifications.ErrorFrame("unknown message type: " + env.Type))
	}
}

// errorMessage is the client-facing text of err; internal details stay in logs.
func errorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	observability.Logger.Error("websocket handler failed", "error", err)
	return "internal error"
}
