package game

import "errors"

var (
	// ErrRoomClosed is returned by calls made after the room stopped.
	ErrRoomClosed = errors.New("room closed")
	// ErrUnknownRoom is returned when an action names a room nobody joined.
	ErrUnknownRoom = errors.New("unknown room")
)
