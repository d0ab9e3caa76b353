package signal

func (ctl *LobbyWSController) handlePing(
	conn *WsLobbyConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
