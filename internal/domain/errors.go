package domain

import "errors"

// None of these are fatal: the router converts every one of them into a
// false/absent result for the requester.
var (
	ErrNoSuchConnection = errors.New("no such connection")
	ErrNoSuchRoom       = errors.New("no such room")
	ErrRoomFull         = errors.New("room full")
	ErrAlreadyInRoom    = errors.New("already in a room")
	ErrNameEmpty        = errors.New("name empty")
	ErrNameTooLong      = errors.New("name too long")
	ErrTransportJoin    = errors.New("transport group join failed")
)
