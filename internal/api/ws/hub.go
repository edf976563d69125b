// Package ws streams company change events to dashboard clients over
// WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/evolutech/platform/internal/server/middleware"
	redisstore "github.com/evolutech/platform/internal/store/redis"
)

// Subscriber is the pub/sub side the hub reads from. *redisstore.Store
// satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub relays Redis pub/sub messages to WebSocket connections.
type Hub struct {
	sub            Subscriber
	originPatterns []string
}

// NewHub creates a hub. originPatterns are passed to websocket.Accept; an
// empty list only admits same-origin clients.
func NewHub(sub Subscriber, originPatterns ...string) *Hub {
	return &Hub{sub: sub, originPatterns: originPatterns}
}

// ServeCompany streams the caller's company channel. Every record mutation
// in the company arrives as a redisstore.CompanyEvent so open lists can
// refetch. Messages from the client are ignored.
func (h *Hub) ServeCompany(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyIDFromContext(r.Context())
	if !ok || companyID == uuid.Nil {
		http.Error(w, "missing company", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// CloseRead cancels ctx once the client goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.sub.Subscribe(ctx, redisstore.CompanyChannel(companyID))
	if err != nil {
		log.Error().Err(err).Str("company_id", companyID.String()).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
