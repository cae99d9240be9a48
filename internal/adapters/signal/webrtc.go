package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/core"
	"github.com/kmelnick/huddle/internal/domain"
)

// sdpPayload covers both offer and answer envelopes. The sdp blob is kept
// opaque end to end.
type sdpPayload struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId"`
	TargetUserID string          `json:"targetUserId"`
	SDP          json.RawMessage `json:"sdp"`
}

func (ctl *Controller) handleSessionDescription(cid core.ConnID, conn core.SignalConnection, kind string, data []byte) {
	var p sdpPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad sdp payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.RoomID == "" || p.TargetUserID == "" || len(p.SDP) == 0 {
		ctl.sendError(conn, fmt.Errorf("%w: roomId, targetUserId and sdp are required", app.ErrInvalidPayload))
		return
	}

	var err error
	switch kind {
	case "offer":
		err = ctl.Orch.RelayOffer(cid, domain.RoomID(p.RoomID), domain.UserID(p.TargetUserID), p.SDP)
	case "answer":
		err = ctl.Orch.RelayAnswer(cid, domain.RoomID(p.RoomID), domain.UserID(p.TargetUserID), p.SDP)
	}
	if err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *Controller) handleCandidate(cid core.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type         string          `json:"type"`
		RoomID       string          `json:"roomId"`
		TargetUserID string          `json:"targetUserId"`
		Candidate    json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad candidate payload")
		ctl.sendError(conn, app.ErrInvalidPayload)
		return
	}
	if p.RoomID == "" || p.TargetUserID == "" || len(p.Candidate) == 0 {
		ctl.sendError(conn, fmt.Errorf("%w: roomId, targetUserId and candidate are required", app.ErrInvalidPayload))
		return
	}

	if err := ctl.Orch.RelayCandidate(cid, domain.RoomID(p.RoomID), domain.UserID(p.TargetUserID), p.Candidate); err != nil {
		ctl.sendError(conn, err)
	}
}
