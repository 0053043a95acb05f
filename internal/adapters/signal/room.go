package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/app"
	"github.com/avoronov/signalhub/internal/domain"
)

func (ctl *SignalWSController) handleJoinRoom(
	ctx context.Context,
	id domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	if !ctl.joins.Allow(id) {
		ctl.sendError(conn, "too many join attempts")
		return
	}

	type joinPayload struct {
		Type        string `json:"type"`
		RoomID      string `json:"roomId"`
		DisplayName string `json:"displayName"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad payload")
		return
	}

	displayName := p.DisplayName
	if displayName == "" {
		displayName = "guest"
	}
	if err := domain.ValidateDisplayName(displayName); err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", p.RoomID).Str("name", displayName).Msg("join-room")
	if err := ctl.Orch.Join(ctx, id, domain.RoomID(p.RoomID), displayName); err != nil {
		if !errors.Is(err, app.ErrRoomNotFound) {
			log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("join failed")
		}
		ctl.sendError(conn, "room not found")
	}
}
