package transport

import "errors"

var (
	ErrChannelClosed = errors.New("CHANNEL_CLOSED")
	ErrNotConnected  = errors.New("NOT_CONNECTED")

	ErrRoomNotFound   = errors.New("ROOM_NOT_FOUND")
	ErrRoomFull       = errors.New("ROOM_FULL")
	ErrRoomBusy       = errors.New("ROOM_BUSY")
	ErrNotRoomCreator = errors.New("NOT_ROOM_CREATOR")
	ErrGameStarted    = errors.New("GAME_STARTED")
	ErrNotInRoom      = errors.New("NOT_IN_ROOM")
)
