package app

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomInfo is a read-only listing entry (no member ids).
type RoomInfo struct {
	Code    domain.RoomCode `json:"code"`
	Members int             `json:"members"`
}

// Rooms owns every live room. Member lists reference connection ids; the
// connection objects themselves stay in the Registry. A room exists iff
// it has 1 or 2 members.
type Rooms struct {
	mu        sync.RWMutex
	rooms     map[domain.RoomCode]*domain.Room
	codeBytes int
}

func NewRooms(codeBytes int) *Rooms {
	if codeBytes <= 0 {
		codeBytes = 4
	}
	return &Rooms{
		rooms:     make(map[domain.RoomCode]*domain.Room),
		codeBytes: codeBytes,
	}
}

// generateCode produces a random hex code. Uniqueness against live rooms
// is enforced by the retry loop in Create, not here.
func (rs *Rooms) generateCode() domain.RoomCode {
	b := make([]byte, rs.codeBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on any supported platform
		log.Panic().Err(err).Str("module", "app.rooms").Msg("rand.Read failed")
	}
	return domain.RoomCode(hex.EncodeToString(b))
}

// Create makes a room with conn as sole member and sets the back-reference.
// Regenerates on code collision rather than overwriting an existing room.
func (rs *Rooms) Create(conn *domain.Connection) domain.RoomCode {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	code := rs.generateCode()
	for {
		if _, taken := rs.rooms[code]; !taken {
			break
		}
		log.Warn().Str("module", "app.rooms").Str("code", string(code)).Msg("code collision, regenerating")
		code = rs.generateCode()
	}

	rs.rooms[code] = domain.NewRoom(code, conn.ID)
	conn.ActiveRoom = code
	log.Info().Str("module", "app.rooms").Str("code", string(code)).Str("conn", string(conn.ID)).Msg("room created")
	return code
}

// Join appends conn to the room's member list. No mutation on failure.
func (rs *Rooms) Join(conn *domain.Connection, code domain.RoomCode) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, ok := rs.rooms[code]
	if !ok {
		return domain.ErrNoSuchRoom
	}
	if room.Full() {
		return domain.ErrRoomFull
	}

	room.Members = append(room.Members, conn.ID)
	conn.ActiveRoom = code
	log.Info().Str("module", "app.rooms").Str("code", string(code)).Str("conn", string(conn.ID)).Int("members", len(room.Members)).Msg("joined room")
	return nil
}

// Leave removes conn from its active room and clears the back-reference.
// The room survives with one member when an opponent remains; it is
// deleted only when the last member departs. Returns whether the room
// was destroyed. No-op for roomless connections.
func (rs *Rooms) Leave(conn *domain.Connection) (destroyed bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !conn.InRoom() {
		return false
	}
	code := conn.ActiveRoom
	conn.ActiveRoom = ""

	room, ok := rs.rooms[code]
	if !ok {
		// back-reference to a missing room is an invariant breach upstream
		log.Warn().Str("module", "app.rooms").Str("code", string(code)).Str("conn", string(conn.ID)).Msg("active room does not exist")
		return false
	}

	room.Remove(conn.ID)
	if len(room.Members) == 0 {
		delete(rs.rooms, code)
		log.Info().Str("module", "app.rooms").Str("code", string(code)).Msg("room destroyed")
		return true
	}
	log.Info().Str("module", "app.rooms").Str("code", string(code)).Str("conn", string(conn.ID)).Int("members", len(room.Members)).Msg("left room")
	return false
}

func (rs *Rooms) Get(code domain.RoomCode) (*domain.Room, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	room, ok := rs.rooms[code]
	return room, ok
}

// Opponent returns the other member of conn's active room, if any.
func (rs *Rooms) Opponent(conn *domain.Connection) (domain.ConnID, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if !conn.InRoom() {
		return "", false
	}
	room, ok := rs.rooms[conn.ActiveRoom]
	if !ok {
		return "", false
	}
	return room.Opponent(conn.ID)
}

// Open lists rooms with remaining capacity. Full rooms still exist but
// are omitted from the public listing.
func (rs *Rooms) Open() []RoomInfo {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]RoomInfo, 0, len(rs.rooms))
	for code, room := range rs.rooms {
		if !room.Full() {
			out = append(out, RoomInfo{Code: code, Members: len(room.Members)})
		}
	}
	return out
}

func (rs *Rooms) Count() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms)
}
