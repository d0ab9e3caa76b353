package signal

import (
	"encoding/json"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

func listingMsg(rooms []app.RoomInfo) any {
	return struct {
		Type  string         `json:"type"`
		Rooms []app.RoomInfo `json:"rooms"`
	}{"rooms", rooms}
}

// broadcastListing pushes the current open-room listing to the main
// lobby audience. Called whenever room existence or open/full status
// changes.
func (ctl *LobbyWSController) broadcastListing() {
	ctl.broadcastJSON(core.LobbyGroup, listingMsg(ctl.Lobby.OpenRooms()), "")
}

func (ctl *LobbyWSController) handleCreateRoom(id domain.ConnID, conn *WsLobbyConn) {
	if !ctl.limiter.Allow(id) {
		log.Warn().Str("module", "signal").Str("conn", string(id)).Msg("create_room rate limited")
		ctl.sendJSON(conn, map[string]any{"type": "create_room_res", "ok": false})
		return
	}

	code, err := ctl.Lobby.CreateRoom(id)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("create_room rejected")
		ctl.sendJSON(conn, map[string]any{"type": "create_room_res", "ok": false})
		return
	}

	// registry already holds the room; a failed transport join only
	// changes the result the creator sees
	ok := true
	if err := ctl.Groups.Join(id, core.RoomGroup(code)); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("room group join")
		ok = false
	}
	ctl.Groups.Leave(id, core.LobbyGroup)

	if ok {
		ctl.sendJSON(conn, struct {
			Type string          `json:"type"`
			OK   bool            `json:"ok"`
			Code domain.RoomCode `json:"code"`
		}{"create_room_res", true, code})
	} else {
		ctl.sendJSON(conn, map[string]any{"type": "create_room_res", "ok": false})
	}
	ctl.broadcastListing()
}

func (ctl *LobbyWSController) handleJoinRoom(id domain.ConnID, conn *WsLobbyConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{"type": "join_room_res", "ok": false})
		return
	}

	res, err := ctl.Lobby.JoinRoom(id, domain.RoomCode(p.Code))
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Str("code", p.Code).Msg("join_room rejected")
		ctl.sendJSON(conn, map[string]any{"type": "join_room_res", "ok": false})
		return
	}

	ok := true
	if err := ctl.Groups.Join(id, core.RoomGroup(res.Room)); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("room group join")
		ok = false
	}
	ctl.Groups.Leave(id, core.LobbyGroup)

	ctl.sendJSON(conn, map[string]any{"type": "join_room_res", "ok": ok})
	if res.Opponent != "" {
		ctl.sendTo(res.Opponent, map[string]any{"type": "opponent_connect"})
	}
	// the room went open -> full
	ctl.broadcastListing()
}

func (ctl *LobbyWSController) handleLeaveRoom(id domain.ConnID, conn *WsLobbyConn) {
	res := ctl.Lobby.LeaveRoom(id)
	ctl.sendJSON(conn, map[string]any{"type": "leave_room_res", "ok": res.Left})
	if !res.Left {
		return
	}

	ctl.Groups.Leave(id, core.RoomGroup(res.Room))
	if err := ctl.Groups.Join(id, core.LobbyGroup); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("lobby group rejoin")
	}
	if res.Opponent != "" {
		ctl.sendTo(res.Opponent, map[string]any{"type": "opponent_disconnect"})
		ctl.regroupEvicted(res.Opponent, res.Room)
	}
	ctl.broadcastListing()
}

// regroupEvicted returns an evicted room survivor to the main-lobby
// audience so listing broadcasts reach them again.
func (ctl *LobbyWSController) regroupEvicted(id domain.ConnID, room domain.RoomCode) {
	ctl.Groups.Leave(id, core.RoomGroup(room))
	if err := ctl.Groups.Join(id, core.LobbyGroup); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("lobby group rejoin")
	}
}

func (ctl *LobbyWSController) handleListRooms(conn *WsLobbyConn) {
	ctl.sendJSON(conn, struct {
		Type  string         `json:"type"`
		Rooms []app.RoomInfo `json:"rooms"`
	}{"list_rooms_res", ctl.Lobby.OpenRooms()})
}
