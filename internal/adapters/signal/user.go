package signal

import (
	"encoding/json"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *LobbyWSController) handleSetName(id domain.ConnID, conn *WsLobbyConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad set_name payload")
		ctl.sendJSON(conn, map[string]any{"type": "set_name_res", "ok": false})
		return
	}

	if err := ctl.Lobby.SetName(id, p.Name); err != nil {
		log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("set_name rejected")
		ctl.sendJSON(conn, map[string]any{"type": "set_name_res", "ok": false})
		return
	}
	ctl.sendJSON(conn, map[string]any{"type": "set_name_res", "ok": true})
}

// handleOpponentName answers with the opponent's name when known, or
// relays the request so the opponent can push its name with send_name.
func (ctl *LobbyWSController) handleOpponentName(id domain.ConnID, conn *WsLobbyConn) {
	name, opp, ok := ctl.Lobby.OpponentName(id)
	if !ok {
		ctl.sendJSON(conn, map[string]any{"type": "get_opponent_name_res", "ok": false})
		return
	}
	if name == "" {
		ctl.sendTo(opp, map[string]any{"type": "get_opponent_name"})
		return
	}
	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		OK   bool   `json:"ok"`
		Name string `json:"name"`
	}{"get_opponent_name_res", true, name})
}

// handleSendName records the sender's name and pushes it to the
// opponent as the answer to an earlier get_opponent_name.
func (ctl *LobbyWSController) handleSendName(id domain.ConnID, conn *WsLobbyConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send_name payload")
		ctl.sendJSON(conn, map[string]any{"type": "send_name_res", "ok": false})
		return
	}

	if p.Name != "" {
		if err := ctl.Lobby.SetName(id, p.Name); err != nil {
			ctl.sendJSON(conn, map[string]any{"type": "send_name_res", "ok": false})
			return
		}
	}

	opp, ok := ctl.Lobby.Opponent(id)
	if !ok {
		ctl.sendJSON(conn, map[string]any{"type": "send_name_res", "ok": false})
		return
	}
	ctl.sendTo(opp, struct {
		Type string `json:"type"`
		OK   bool   `json:"ok"`
		Name string `json:"name"`
	}{"get_opponent_name_res", true, p.Name})
	ctl.sendJSON(conn, map[string]any{"type": "send_name_res", "ok": true})
}
