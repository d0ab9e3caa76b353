package app

import (
	"testing"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants asserts the referential consistency rules after an
// operation: active-room references resolve to live rooms containing the
// connection, member lists only hold registered ids, and every room has
// one or two members.
func checkInvariants(t *testing.T, l *Lobby) {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, conn := range l.registry.conns {
		if !conn.InRoom() {
			continue
		}
		room, ok := l.rooms.rooms[conn.ActiveRoom]
		require.True(t, ok, "conn %s references missing room %s", id, conn.ActiveRoom)
		assert.True(t, room.Has(id), "room %s does not list member %s", conn.ActiveRoom, id)
	}
	for code, room := range l.rooms.rooms {
		require.NotEmpty(t, room.Members, "room %s retained with no members", code)
		require.LessOrEqual(t, len(room.Members), domain.MaxRoomMembers, "room %s over capacity", code)
		for _, m := range room.Members {
			_, ok := l.registry.conns[m]
			assert.True(t, ok, "room %s lists unregistered member %s", code, m)
		}
	}
}

func TestLobby_CreateJoinLeave(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")
	l.Connect("b")
	checkInvariants(t, l)

	code, err := l.CreateRoom("a")
	require.NoError(t, err)
	checkInvariants(t, l)

	res, err := l.JoinRoom("b", code)
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("a"), res.Opponent)
	assert.Equal(t, code, res.Room)
	checkInvariants(t, l)

	opp, ok := l.Opponent("a")
	require.True(t, ok)
	assert.Equal(t, domain.ConnID("b"), opp)

	leave := l.LeaveRoom("a")
	assert.True(t, leave.Left)
	assert.True(t, leave.Destroyed, "pairing dies with either member")
	assert.Equal(t, domain.ConnID("b"), leave.Opponent)
	checkInvariants(t, l)
	assert.Equal(t, 0, l.RoomCount())

	// the evicted survivor is roomless; a second leave is a no-op
	conn, _ := l.registry.Get("b")
	assert.False(t, conn.InRoom())
	leave = l.LeaveRoom("b")
	assert.False(t, leave.Left)
	checkInvariants(t, l)
}

func TestLobby_CreateRequiresRegistration(t *testing.T) {
	l := NewLobby(4)

	_, err := l.CreateRoom("ghost")
	assert.ErrorIs(t, err, domain.ErrNoSuchConnection)

	_, err = l.JoinRoom("ghost", "deadbeef")
	assert.ErrorIs(t, err, domain.ErrNoSuchConnection)
}

func TestLobby_CreateWhileInRoomRejected(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")

	code, err := l.CreateRoom("a")
	require.NoError(t, err)

	_, err = l.CreateRoom("a")
	assert.ErrorIs(t, err, domain.ErrAlreadyInRoom)
	checkInvariants(t, l)
	assert.Equal(t, 1, l.RoomCount())

	// same for joining another room while seated
	l.Connect("b")
	code2, err := l.CreateRoom("b")
	require.NoError(t, err)
	_ = code2
	_, err = l.JoinRoom("a", code2)
	assert.ErrorIs(t, err, domain.ErrAlreadyInRoom)
	conn, _ := l.registry.Get("a")
	assert.Equal(t, code, conn.ActiveRoom, "failed join must not move the connection")
	checkInvariants(t, l)
}

func TestLobby_ThirdJoinFails(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")
	l.Connect("b")
	l.Connect("c")

	code, err := l.CreateRoom("a")
	require.NoError(t, err)
	_, err = l.JoinRoom("b", code)
	require.NoError(t, err)

	_, err = l.JoinRoom("c", code)
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	checkInvariants(t, l)

	conn, _ := l.registry.Get("c")
	assert.False(t, conn.InRoom())
}

func TestLobby_LeaveIdempotent(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")

	res := l.LeaveRoom("a")
	assert.False(t, res.Left)
	res = l.LeaveRoom("a")
	assert.False(t, res.Left)
	res = l.LeaveRoom("ghost")
	assert.False(t, res.Left)
	checkInvariants(t, l)
}

func TestLobby_DisconnectDestroysSoleRoom(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")

	_, err := l.CreateRoom("a")
	require.NoError(t, err)

	res := l.Disconnect("a")
	assert.True(t, res.Left)
	assert.True(t, res.Destroyed)
	assert.Empty(t, res.Opponent)
	checkInvariants(t, l)
	assert.Equal(t, 0, l.Connections())
	assert.Equal(t, 0, l.RoomCount())
	assert.Empty(t, l.OpenRooms())
}

func TestLobby_DisconnectNotifiesSurvivor(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")
	l.Connect("b")

	code, err := l.CreateRoom("a")
	require.NoError(t, err)
	_, err = l.JoinRoom("b", code)
	require.NoError(t, err)

	res := l.Disconnect("a")
	assert.True(t, res.Left)
	assert.True(t, res.Destroyed)
	assert.Equal(t, domain.ConnID("b"), res.Opponent)
	checkInvariants(t, l)

	// the room left no trace: survivor is roomless, listing is empty
	assert.Equal(t, 0, l.RoomCount())
	assert.Empty(t, l.OpenRooms())
	_, ok := l.rooms.Get(code)
	assert.False(t, ok)
	conn, _ := l.registry.Get("b")
	assert.False(t, conn.InRoom())

	// disconnect of an already-gone id is safe
	res = l.Disconnect("a")
	assert.False(t, res.Left)
}

func TestLobby_OpponentAbsentCases(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")

	_, ok := l.Opponent("a")
	assert.False(t, ok, "no room, no opponent")

	_, err := l.CreateRoom("a")
	require.NoError(t, err)
	_, ok = l.Opponent("a")
	assert.False(t, ok, "sole occupant has no opponent")

	_, ok = l.Opponent("ghost")
	assert.False(t, ok)
}

func TestLobby_OpponentName(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")
	l.Connect("b")

	code, err := l.CreateRoom("a")
	require.NoError(t, err)
	_, err = l.JoinRoom("b", code)
	require.NoError(t, err)

	name, opp, ok := l.OpponentName("b")
	require.True(t, ok)
	assert.Equal(t, domain.ConnID("a"), opp)
	assert.Empty(t, name, "opponent never set a name")

	require.NoError(t, l.SetName("a", "alice"))
	name, _, ok = l.OpponentName("b")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	assert.ErrorIs(t, l.SetName("a", ""), domain.ErrNameEmpty)
}

func TestLobby_ListingReflectsOpenSeats(t *testing.T) {
	l := NewLobby(4)
	l.Connect("a")
	l.Connect("b")

	code, err := l.CreateRoom("a")
	require.NoError(t, err)

	open := l.OpenRooms()
	require.Len(t, open, 1)
	assert.Equal(t, RoomInfo{Code: code, Members: 1}, open[0])

	_, err = l.JoinRoom("b", code)
	require.NoError(t, err)
	assert.Empty(t, l.OpenRooms(), "full room leaves the public listing")
}
