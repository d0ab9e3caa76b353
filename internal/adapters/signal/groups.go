package signal

import (
	"sync"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// GroupTable implements core.Groups over the live ws endpoints. It is
// transport-side bookkeeping only: room membership truth lives in the
// registries, this mirrors it for fan-out.
type GroupTable struct {
	mu        sync.RWMutex
	endpoints map[domain.ConnID]core.SignalConnection
	groups    map[core.GroupID]map[domain.ConnID]struct{}
}

func NewGroupTable() *GroupTable {
	return &GroupTable{
		endpoints: make(map[domain.ConnID]core.SignalConnection),
		groups:    make(map[core.GroupID]map[domain.ConnID]struct{}),
	}
}

func (g *GroupTable) Attach(id domain.ConnID, sc core.SignalConnection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.endpoints[id] = sc
}

// Detach drops the endpoint and every group membership it had.
func (g *GroupTable) Detach(id domain.ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.endpoints, id)
	for gid, members := range g.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(g.groups, gid)
		}
	}
}

func (g *GroupTable) Join(id domain.ConnID, gid core.GroupID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.endpoints[id]; !ok {
		return domain.ErrTransportJoin
	}
	members, ok := g.groups[gid]
	if !ok {
		members = make(map[domain.ConnID]struct{})
		g.groups[gid] = members
	}
	members[id] = struct{}{}
	return nil
}

func (g *GroupTable) Leave(id domain.ConnID, gid core.GroupID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if members, ok := g.groups[gid]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(g.groups, gid)
		}
	}
}

func (g *GroupTable) Send(id domain.ConnID, f core.Frame) {
	g.mu.RLock()
	sc, ok := g.endpoints[id]
	g.mu.RUnlock()
	if !ok {
		return
	}
	if err := sc.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "signal.groups").Str("conn", string(id)).Msg("send dropped")
	}
}

func (g *GroupTable) Broadcast(gid core.GroupID, f core.Frame, except domain.ConnID) {
	g.mu.RLock()
	targets := make([]core.SignalConnection, 0, len(g.groups[gid]))
	ids := make([]domain.ConnID, 0, len(g.groups[gid]))
	for id := range g.groups[gid] {
		if id == except {
			continue
		}
		if sc, ok := g.endpoints[id]; ok {
			targets = append(targets, sc)
			ids = append(ids, id)
		}
	}
	g.mu.RUnlock()

	for i, sc := range targets {
		if err := sc.TrySend(f); err != nil {
			log.Warn().Err(err).Str("module", "signal.groups").Str("conn", string(ids[i])).Msg("broadcast dropped")
		}
	}
}

// Endpoint returns the raw endpoint for direct replies.
func (g *GroupTable) Endpoint(id domain.ConnID) (core.SignalConnection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sc, ok := g.endpoints[id]
	return sc, ok
}
