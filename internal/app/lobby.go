package app

import (
	"sync"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// Lobby is the orchestration layer over the two registries. Every public
// operation holds l.mu for its full duration; that single serialization
// point is the entire concurrency control for registry state, so two
// events touching the same room can never interleave their mutations.
type Lobby struct {
	mu       sync.Mutex
	registry *Registry
	rooms    *Rooms
}

func NewLobby(codeBytes int) *Lobby {
	rooms := NewRooms(codeBytes)
	return &Lobby{
		registry: NewRegistry(rooms),
		rooms:    rooms,
	}
}

// JoinResult reports a successful join's side facts to the router.
type JoinResult struct {
	Opponent domain.ConnID // the prior occupant, to be notified
	Room     domain.RoomCode
}

// LeaveResult reports what a departure did to the registries. Rooms are
// torn down whenever a member departs: a pairing does not survive the
// loss of either side, so the opponent (when present) is evicted too
// and must be returned to the main-lobby audience by the router.
type LeaveResult struct {
	Left      bool            // the connection was in a room
	Destroyed bool            // that room is now gone
	Room      domain.RoomCode // the room that was left
	Opponent  domain.ConnID   // the evicted other member, when there was one
}

func (l *Lobby) Connect(id domain.ConnID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry.Register(id)
}

// Disconnect tears down the connection: leaves its room (notifying data
// for the router included in the result) and removes it from the
// registry. Safe to call for ids already gone.
func (l *Lobby) Disconnect(id domain.ConnID) LeaveResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := l.peekDeparture(id)
	res.Destroyed = l.registry.Remove(id)
	l.evictSurvivor(&res)
	return res
}

// CreateRoom makes a fresh room with the caller as sole member.
func (l *Lobby) CreateRoom(id domain.ConnID) (domain.RoomCode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn, ok := l.registry.Get(id)
	if !ok {
		return "", domain.ErrNoSuchConnection
	}
	if conn.InRoom() {
		return "", domain.ErrAlreadyInRoom
	}
	return l.rooms.Create(conn), nil
}

// JoinRoom puts the caller into an existing room with a free seat.
// This is the only transition from one member to two.
func (l *Lobby) JoinRoom(id domain.ConnID, code domain.RoomCode) (JoinResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn, ok := l.registry.Get(id)
	if !ok {
		return JoinResult{}, domain.ErrNoSuchConnection
	}
	if conn.InRoom() {
		return JoinResult{}, domain.ErrAlreadyInRoom
	}
	if err := l.rooms.Join(conn, code); err != nil {
		return JoinResult{}, err
	}
	opp, _ := l.rooms.Opponent(conn)
	return JoinResult{Opponent: opp, Room: code}, nil
}

// LeaveRoom takes the caller out of its active room without dropping the
// connection. Idempotent: a roomless caller gets a zero result.
func (l *Lobby) LeaveRoom(id domain.ConnID) LeaveResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := l.peekDeparture(id)
	if !res.Left {
		return res
	}
	conn, _ := l.registry.Get(id)
	res.Destroyed = l.rooms.Leave(conn)
	l.evictSurvivor(&res)
	return res
}

// evictSurvivor applies the teardown policy: when a departure left an
// opponent behind in a half-empty room, take them out too so no trace
// of the pairing remains. Caller holds l.mu.
func (l *Lobby) evictSurvivor(res *LeaveResult) {
	if !res.Left || res.Destroyed || res.Opponent == "" {
		return
	}
	opp, ok := l.registry.Get(res.Opponent)
	if !ok {
		log.Warn().Str("module", "app.lobby").Str("conn", string(res.Opponent)).Msg("room member missing from registry")
		return
	}
	res.Destroyed = l.rooms.Leave(opp)
}

// peekDeparture snapshots room facts before a departure mutates them.
// Caller holds l.mu.
func (l *Lobby) peekDeparture(id domain.ConnID) LeaveResult {
	conn, ok := l.registry.Get(id)
	if !ok || !conn.InRoom() {
		return LeaveResult{}
	}
	res := LeaveResult{Left: true, Room: conn.ActiveRoom}
	if opp, ok := l.rooms.Opponent(conn); ok {
		res.Opponent = opp
	}
	return res
}

func (l *Lobby) SetName(id domain.ConnID, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registry.SetName(id, name)
}

// Opponent finds the other member of the caller's room. Absent when the
// caller has no room or sits alone in it.
func (l *Lobby) Opponent(id domain.ConnID) (domain.ConnID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn, ok := l.registry.Get(id)
	if !ok {
		return "", false
	}
	return l.rooms.Opponent(conn)
}

// OpponentName returns the opponent and its display name. The name may
// be empty when the opponent never set one.
func (l *Lobby) OpponentName(id domain.ConnID) (string, domain.ConnID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn, ok := l.registry.Get(id)
	if !ok {
		return "", "", false
	}
	opp, ok := l.rooms.Opponent(conn)
	if !ok {
		return "", "", false
	}
	oppConn, ok := l.registry.Get(opp)
	if !ok {
		// member list referencing an unregistered connection is an
		// invariant breach upstream
		log.Warn().Str("module", "app.lobby").Str("conn", string(opp)).Msg("room member missing from registry")
		return "", "", false
	}
	return oppConn.Name, opp, true
}

func (l *Lobby) OpenRooms() []RoomInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rooms.Open()
}

func (l *Lobby) Connections() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registry.Count()
}

func (l *Lobby) RoomCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rooms.Count()
}

// Registry exposes the connection registry for diagnostics.
func (l *Lobby) Registry() *Registry { return l.registry }

// Rooms exposes the room registry for diagnostics.
func (l *Lobby) Rooms() *Rooms { return l.rooms }
