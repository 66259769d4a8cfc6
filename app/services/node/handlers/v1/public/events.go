package public

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	v1 "github.com/hancoin9/hancoin/business/web/v1"
	"github.com/hancoin9/hancoin/foundation/events"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/web"
)

// Limits applied to every events connection. A client that stops answering
// pings or floods the node with inbound frames is disconnected.
const (
	pingPeriod     = 30 * time.Second
	pongWait       = 75 * time.Second
	writeWait      = 10 * time.Second
	maxFrameBytes  = 4096
	maxInboundRate = 10 // frames per second before the connection is dropped
)

// Events handles a web socket to provide events to a client. Connections
// made on /events/:account additionally receive the events addressed to
// that account.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var accountID database.AccountID
	if account := web.Param(r, "account"); account != "" {
		accountID, err = database.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	// Register before upgrading so a full hub is reported as a plain
	// HTTP error the client can interpret.
	ch, err := h.Evts.Acquire(v.TraceID, string(accountID))
	if err != nil {
		if err == events.ErrHubFull {
			return v1.NewRequestError(err, http.StatusServiceUnavailable)
		}
		return err
	}
	defer h.Evts.Release(v.TraceID)

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("events", "traceid", v.TraceID, "account", accountID, "status", "subscribed", "connections", h.Evts.Count())

	// The read loop enforces the liveness and abuse limits. Inbound data
	// frames carry nothing the node needs, so they only count against the
	// rate limit.
	done := make(chan struct{})
	go func() {
		defer close(done)

		c.SetReadLimit(maxFrameBytes)
		c.SetReadDeadline(time.Now().Add(pongWait))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(pongWait))
		})

		var frames int
		window := time.Now()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}

			now := time.Now()
			if now.Sub(window) >= time.Second {
				frames = 0
				window = now
			}
			frames++
			if frames > maxInboundRate {
				h.Log.Infow("events", "traceid", v.TraceID, "status", "inbound rate exceeded")
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-done:
			return nil
		}
	}
}
