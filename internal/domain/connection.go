// Package domain contains entity without logic, just meta-data
package domain

const MaxNameLen = 36

// ConnID identifies one live client channel. Supplied by the transport
// layer and stable for the channel's lifetime.
type ConnID string

// Connection is one client's session state. ActiveRoom is a back-reference
// only; the room itself is owned by the room registry.
type Connection struct {
	ID         ConnID
	Name       string
	ActiveRoom RoomCode
}

// NewConnection avoids raw literals in adapters and keeps construction obvious.
func NewConnection(id ConnID) *Connection {
	return &Connection{ID: id}
}

func (c *Connection) SetName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	c.Name = name
	return nil
}

// InRoom reports whether the connection currently references a room.
func (c *Connection) InRoom() bool {
	return c.ActiveRoom != ""
}
