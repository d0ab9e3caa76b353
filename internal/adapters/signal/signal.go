package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

// LobbyWSController routes inbound lobby events: each ws frame maps to
// one coordinator call plus zero or more outbound frames to the
// requester, the opponent, or the main-lobby audience.
type LobbyWSController struct {
	Lobby   *app.Lobby
	Groups  *GroupTable
	limiter *app.RateLimiter
	cfg     *config.Config
}

func NewLobbyWSController(cfg *config.Config, lobby *app.Lobby) *LobbyWSController {
	return &LobbyWSController{
		Lobby:   lobby,
		Groups:  NewGroupTable(),
		limiter: app.NewRateLimiter(cfg.CreateLimit, cfg.CreateInterval),
		cfg:     cfg,
	}
}

type WsLobbyConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsLobbyConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsLobbyConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleLobby upgrades the request and runs the connection lifecycle:
// register, join the main-lobby audience, pump until the channel dies.
func (ctl *LobbyWSController) HandleLobby(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	// one id per channel, not per client token: two tabs are two connections
	id := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("token", token).Msg("new WS connection")

	conn := &WsLobbyConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}

	ctl.Groups.Attach(id, conn)
	ctl.Lobby.Connect(id)
	if err := ctl.Groups.Join(id, core.LobbyGroup); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("lobby group join")
	}
	ctl.sendJSON(conn, listingMsg(ctl.Lobby.OpenRooms()))

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
