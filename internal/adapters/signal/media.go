package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
)

func (ctl *Controller) handleToggle(cid core.ConnID, conn core.SignalConnection, kind string, data []byte) {
	var p struct {
		Type      string `json:"type"`
		RoomID    string `json:"roomId"`
		IsEnabled *bool  `json:"isEnabled"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad toggle payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.RoomID == "" || p.IsEnabled == nil {
		ctl.sendError(conn, fmt.Errorf("%w: roomId and isEnabled are required", app.ErrInvalidPayload))
		return
	}

	var err error
	switch kind {
	case "toggle-video":
		err = ctl.Orch.ToggleVideo(cid, domain.RoomID(p.RoomID), *p.IsEnabled)
	case "toggle-audio":
		err = ctl.Orch.ToggleAudio(cid, domain.RoomID(p.RoomID), *p.IsEnabled)
	}
	if err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *Controller) handleScreenShare(cid core.ConnID, conn core.SignalConnection, kind string, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad screen-share payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.RoomID == "" {
		ctl.sendError(conn, fmt.Errorf("%w: roomId is required", app.ErrInvalidPayload))
		return
	}

	if err := ctl.Orch.ScreenShare(cid, domain.RoomID(p.RoomID), kind == "start-screen-share"); err != nil {
		ctl.sendError(conn, err)
	}
}
