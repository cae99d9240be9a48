package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// disconnect tears down everything tied to the connection, including the
// user's chat-rate window so a reconnect starts fresh.
func (ctl *Controller) disconnect(cid core.ConnID) {
	if user, ok := ctl.Orch.Registry.Lookup(cid); ok {
		ctl.Limiter.Forget(user.ID)
	}
	ctl.Orch.Disconnect(cid)
}

func (ctl *Controller) readPump(ctx context.Context, cid core.ConnID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
		ctl.disconnect(cid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleMessage(cid, c, data)
		}
	}
}

// handleMessage dispatches one inbound envelope. Any failure is reported
// to the sender only; the connection stays open.
func (ctl *Controller) handleMessage(cid core.ConnID, conn core.SignalConnection, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad json")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}

	switch env.Type {
	case "join-server":
		ctl.handleJoinServer(cid, conn, data)
	case "join-room":
		ctl.handleJoinRoom(cid, conn, data)
	case "leave-room":
		ctl.handleLeaveRoom(cid, conn)
	case "offer", "answer":
		ctl.handleSessionDescription(cid, conn, env.Type, data)
	case "ice-candidate":
		ctl.handleCandidate(cid, conn, data)
	case "toggle-video", "toggle-audio":
		ctl.handleToggle(cid, conn, env.Type, data)
	case "chat-message":
		ctl.handleChat(cid, conn, data)
	case "start-screen-share", "stop-screen-share":
		ctl.handleScreenShare(cid, conn, env.Type, data)
	case "ping":
		ctl.handlePing(conn)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(conn, app.ErrInvalidPayload)
	}
}

func (ctl *Controller) sendJSON(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(b)
}

// sendError reports a per-message failure back to the originating
// connection. Unexpected errors are masked behind a generic message.
func (ctl *Controller) sendError(conn core.SignalConnection, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, app.ErrInvalidPayload),
		errors.Is(err, app.ErrIdentityRequired),
		errors.Is(err, app.ErrDuplicateIdentity),
		errors.Is(err, app.ErrRoomNotFound),
		errors.Is(err, app.ErrNotInRoom):
	default:
		log.Error().Err(err).Str("module", "signal").Msg("internal relay error")
		msg = "internal error"
	}
	ctl.sendJSON(conn, app.ErrorEvent{Type: "error", Message: msg})
}
