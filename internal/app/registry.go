package app

import (
	"sync"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry owns every live Connection. The active-room field of a
// connection is maintained by Rooms; everything else lives here.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*domain.Connection
	rooms *Rooms
}

func NewRegistry(rooms *Rooms) *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*domain.Connection),
		rooms: rooms,
	}
}

// Register creates a fresh connection with no name and no room.
// Registering a known id overwrites the old state; that indicates a
// transport bug upstream, so it is logged but not fatal.
func (r *Registry) Register(id domain.ConnID) *domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		log.Warn().Str("module", "app.registry").Str("conn", string(id)).Msg("re-registering known connection")
	}
	c := domain.NewConnection(id)
	r.conns[id] = c
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("total", len(r.conns)).Msg("connection registered")
	return c
}

// Get returns the connection, or false when the id is unknown. Callers
// treat absence as a stale/already-disconnected peer, not an error.
func (r *Registry) Get(id domain.ConnID) (*domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) SetName(id domain.ConnID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return domain.ErrNoSuchConnection
	}
	if err := c.SetName(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("name", name).Msg("name set")
	return nil
}

// Remove deletes the connection, leaving its active room first. Returns
// whether that departure destroyed the room, so the router knows to
// rebroadcast the listing. Unknown ids are a no-op.
func (r *Registry) Remove(id domain.ConnID) (roomDestroyed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	roomDestroyed = r.rooms.Leave(c)
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("total", len(r.conns)).Msg("connection removed")
	return roomDestroyed
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
