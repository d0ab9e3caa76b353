package core

import "github.com/dkeye/Lobby/internal/domain"

// Frame is one encoded wire message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// GroupID names a broadcast audience: a room code, or the main lobby.
type GroupID string

// LobbyGroup is the implicit audience of every connection that is not
// currently in a room. Open-room listings are published here.
const LobbyGroup GroupID = "lobby"

// RoomGroup is the broadcast group of a single room.
func RoomGroup(code domain.RoomCode) GroupID {
	return GroupID(code)
}

// Groups is the transport-side fan-out surface. Join can fail when the
// endpoint is already gone; registry state is always mutated before any
// group operation, so a failed Join only affects the result the
// requester sees.
type Groups interface {
	Join(id domain.ConnID, g GroupID) error
	Leave(id domain.ConnID, g GroupID)
	Send(id domain.ConnID, f Frame)
	Broadcast(g GroupID, f Frame, except domain.ConnID)
}
