package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/domain"
)

// handleDirected forwards offer/answer/ice-candidate payloads to a named
// target connection. The payload body is opaque and passed through
// unchanged; only the envelope is parsed.
func (ctl *SignalWSController) handleDirected(id domain.ConnID, event string, data []byte) {
	type directedPayload struct {
		Type               string          `json:"type"`
		TargetConnectionID string          `json:"targetConnectionId"`
		Payload            json.RawMessage `json:"payload"`
	}
	var p directedPayload
	if err := json.Unmarshal(data, &p); err != nil || p.TargetConnectionID == "" {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("bad directed payload")
		return
	}

	ctl.Orch.RelaySignal(id, domain.ConnID(p.TargetConnectionID), event, p.Payload)
}
