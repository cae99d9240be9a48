package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
)

func (ctl *Controller) handleChat(cid core.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type    string  `json:"type"`
		RoomID  string  `json:"roomId"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.RoomID == "" || p.Message == nil {
		ctl.sendError(conn, fmt.Errorf("%w: roomId and message are required", app.ErrInvalidPayload))
		return
	}

	if user, ok := ctl.Orch.Registry.Lookup(cid); ok && !ctl.Limiter.Allow(user.ID) {
		log.Warn().Str("module", "signal").Str("user", string(user.ID)).Msg("chat rate limit hit")
		ctl.sendJSON(conn, app.ErrorEvent{Type: "error", Message: "too many messages, slow down"})
		return
	}

	if err := ctl.Orch.Chat(cid, domain.RoomID(p.RoomID), *p.Message); err != nil {
		ctl.sendError(conn, err)
	}
}
