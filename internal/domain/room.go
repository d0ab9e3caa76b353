package domain

// RoomCode is the short shareable identifier of a room. Codes double as
// the only access control for a room, so they come from crypto/rand.
type RoomCode string

// MaxRoomMembers is fixed: rooms pair exactly two opponents.
const MaxRoomMembers = 2

// Room holds an ordered member list. A live room always has 1 or 2
// members; a room that would drop to 0 is deleted, not retained.
type Room struct {
	Code    RoomCode
	Members []ConnID
}

func NewRoom(code RoomCode, owner ConnID) *Room {
	return &Room{Code: code, Members: []ConnID{owner}}
}

func (r *Room) Full() bool {
	return len(r.Members) >= MaxRoomMembers
}

func (r *Room) Has(id ConnID) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Opponent returns the other member of the room, if any.
func (r *Room) Opponent(of ConnID) (ConnID, bool) {
	for _, m := range r.Members {
		if m != of {
			return m, true
		}
	}
	return "", false
}

// Remove drops id from the member list, keeping order.
func (r *Room) Remove(id ConnID) {
	for i, m := range r.Members {
		if m == id {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return
		}
	}
}
