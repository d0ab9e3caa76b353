package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *LobbyWSController) writePump(ctx context.Context, c *WsLobbyConn) {
	ping := time.NewTicker(ctl.cfg.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *LobbyWSController) readPump(ctx context.Context, cancel context.CancelFunc, id domain.ConnID, c *WsLobbyConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		ctl.onDisconnect(id)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(id, c, data)
		}
	}
}

// handleEvent maps one inbound frame to exactly one coordinator call.
// Unknown types and bad payloads are logged and answered, never fatal.
func (ctl *LobbyWSController) handleEvent(id domain.ConnID, c *WsLobbyConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_json"})
		return
	}

	switch env.Type {
	case "create_room":
		ctl.handleCreateRoom(id, c)
	case "join_room":
		ctl.handleJoinRoom(id, c, data)
	case "leave_room":
		ctl.handleLeaveRoom(id, c)
	case "list_rooms":
		ctl.handleListRooms(c)
	case "set_name":
		ctl.handleSetName(id, c, data)
	case "send_name":
		ctl.handleSendName(id, c, data)
	case "get_opponent_name":
		ctl.handleOpponentName(id, c)
	case "set_opponent_color":
		ctl.handleOpponentColor(id, c, data)
	case "resign", "play_again", "opponent_leave_lobby":
		ctl.handleControlRelay(id, c, env.Type)
	case "opponent":
		ctl.handleOpponent(id, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "unknown_type"})
	}
}

// onDisconnect runs the disconnect path exactly once per connection. It
// is safe even when the room was already mutated by a just-processed
// event: the coordinator treats stale ids as no-ops.
func (ctl *LobbyWSController) onDisconnect(id domain.ConnID) {
	res := ctl.Lobby.Disconnect(id)
	if res.Left && res.Opponent != "" {
		ctl.sendTo(res.Opponent, map[string]any{"type": "opponent_disconnect"})
		ctl.regroupEvicted(res.Opponent, res.Room)
	}
	ctl.Groups.Detach(id)
	ctl.limiter.Forget(id)
	if res.Left {
		// the room is gone, so the listing changed
		ctl.broadcastListing()
	}
}

func (ctl *LobbyWSController) sendJSON(c *WsLobbyConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}

func (ctl *LobbyWSController) sendTo(id domain.ConnID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendTo marshal")
		return
	}
	ctl.Groups.Send(id, b)
}

func (ctl *LobbyWSController) broadcastJSON(g core.GroupID, v any, except domain.ConnID) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Groups.Broadcast(g, b, except)
}
