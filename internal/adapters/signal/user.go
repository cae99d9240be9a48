package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
)

func (ctl *Controller) handleJoinServer(cid core.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join-server payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.UserID == "" || p.UserName == "" {
		ctl.sendError(conn, fmt.Errorf("%w: userId and userName are required", app.ErrInvalidPayload))
		return
	}

	if err := ctl.Orch.JoinServer(cid, domain.UserID(p.UserID), p.UserName); err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", p.UserID).Str("name", p.UserName).Msg("join-server")
}
