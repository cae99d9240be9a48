package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
)

func (ctl *Controller) handleJoinRoom(cid core.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join-room payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.RoomID == "" || p.UserID == "" || p.UserName == "" {
		ctl.sendError(conn, fmt.Errorf("%w: roomId, userId and userName are required", app.ErrInvalidPayload))
		return
	}

	if err := ctl.Orch.JoinRoom(cid, domain.RoomID(p.RoomID)); err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("room", p.RoomID).Msg("join-room")
}

// handleLeaveRoom leaves the current room; the connection stays open.
func (ctl *Controller) handleLeaveRoom(cid core.ConnID, conn core.SignalConnection) {
	if err := ctl.Orch.LeaveRoom(cid); err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("leave-room")
}
