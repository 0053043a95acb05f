package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/core"
	"github.com/avoronov/signalhub/internal/domain"
	"github.com/avoronov/signalhub/internal/metrics"
)

// Relay routes addressed payloads between live connections. It holds no
// business state: the peer table answers "is this connection live", the
// registry answers "who is in this room", and payload contents are never
// inspected.
type Relay struct {
	peers    *peerTable
	registry *core.Registry
}

func NewRelay(peers *peerTable, registry *core.Registry) *Relay {
	return &Relay{peers: peers, registry: registry}
}

// broadcastResult reports fan-out delivery so the caller can apply
// backpressure policy to connections that refused the frame.
type broadcastResult struct {
	sent    int
	dropped []domain.ConnID
}

// SendTo delivers an event to one named connection. A missing target is
// not an error: best-effort signaling silently drops and the sender gets
// no failure signal.
func (r *Relay) SendTo(target domain.ConnID, event string, v any) bool {
	conn, ok := r.peers.signal(target)
	if !ok {
		metrics.DroppedSendsTotal.Inc()
		log.Debug().Str("module", "app.relay").Str("target", string(target)).Str("event", event).Msg("target not live, dropped")
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", event).Msg("marshal")
		return false
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		metrics.DroppedSendsTotal.Inc()
		log.Warn().Err(err).Str("module", "app.relay").Str("target", string(target)).Str("event", event).Msg("send failed")
		return false
	}
	metrics.RelayedTotal.WithLabelValues(event).Inc()
	return true
}

// Broadcast delivers an event to every participant of the room except
// one connection (usually the sender). The roster is a snapshot, so
// concurrent membership changes never corrupt iteration.
func (r *Relay) Broadcast(roomID domain.RoomID, except domain.ConnID, event string, v any) broadcastResult {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", event).Msg("marshal")
		return broadcastResult{}
	}

	var res broadcastResult
	for _, p := range r.registry.Participants(roomID) {
		if p.ConnID == except {
			continue
		}
		conn, ok := r.peers.signal(p.ConnID)
		if !ok {
			continue
		}
		if err := conn.TrySend(core.Frame(b)); err != nil {
			metrics.DroppedSendsTotal.Inc()
			res.dropped = append(res.dropped, p.ConnID)
			continue
		}
		metrics.RelayedTotal.WithLabelValues(event).Inc()
		res.sent++
	}
	log.Debug().Str("module", "app.relay").Str("room", string(roomID)).Str("event", event).Int("sent", res.sent).Int("dropped", len(res.dropped)).Msg("broadcast")
	return res
}
