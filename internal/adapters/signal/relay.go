package signal

import (
	"encoding/json"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleOpponent forwards an arbitrary payload verbatim to the caller's
// opponent. Only the data field crosses over; the envelope type stays
// fixed so the receiver cannot be tricked into another event kind.
func (ctl *LobbyWSController) handleOpponent(id domain.ConnID, conn *WsLobbyConn, data []byte) {
	var p struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad opponent payload")
		ctl.sendJSON(conn, map[string]any{"type": "opponent", "ok": false})
		return
	}

	opp, ok := ctl.Lobby.Opponent(id)
	if !ok {
		ctl.sendJSON(conn, map[string]any{"type": "opponent", "ok": false})
		return
	}
	ctl.sendTo(opp, struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}{"opponent", p.Data})
}

func (ctl *LobbyWSController) handleOpponentColor(id domain.ConnID, conn *WsLobbyConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad set_opponent_color payload")
		return
	}

	opp, ok := ctl.Lobby.Opponent(id)
	if !ok {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("set_opponent_color without opponent")
		return
	}
	ctl.sendTo(opp, struct {
		Type  string `json:"type"`
		Color string `json:"color"`
	}{"set_opponent_color", p.Color})
}

// handleControlRelay serves the fixed game-control events: the event is
// relayed to the opponent and acknowledged to the requester.
func (ctl *LobbyWSController) handleControlRelay(id domain.ConnID, conn *WsLobbyConn, event string) {
	opp, ok := ctl.Lobby.Opponent(id)
	if ok {
		ctl.sendTo(opp, map[string]any{"type": event})
	}
	ctl.sendJSON(conn, map[string]any{"type": event + "_res", "ok": ok})
}
