package matchmaking

const (
	// RoomKeyPrefix + id holds the room JSON.
	RoomKeyPrefix = "arena:room:"
	// RoomLockKeyPrefix + id guards read-modify-write of one room.
	RoomLockKeyPrefix = "arena:room:lock:"
	// RoomIndexKey is the set of live room ids.
	RoomIndexKey = "arena:rooms"
	// RoomEventsChannel is the Pub/Sub channel carrying room events.
	RoomEventsChannel = "arena:rooms:events"
)

func BuildRoomKey(roomID string) string {
	return RoomKeyPrefix + roomID
}

func BuildRoomLockKey(roomID string) string {
	return RoomLockKeyPrefix + roomID
}
