package nats

const (
	// SubjectChannelPrefix + id + SubjectChannelMsgSuffix carries channel messages.
	SubjectChannelPrefix    = "arena.channel."
	SubjectChannelMsgSuffix = ".msg"

	// SubjectGamePrefix + id + SubjectGameEventSuffix carries game module notifications.
	SubjectGamePrefix      = "arena.game."
	SubjectGameEventSuffix = ".event"

	// SubjectGameRequest is where peers send game module requests.
	SubjectGameRequest = "arena.game.request"

	// QueueGroupGame spreads requests over game module instances.
	QueueGroupGame = "arena-game"
)

func BuildChannelSubject(channelID string) string {
	return SubjectChannelPrefix + channelID + SubjectChannelMsgSuffix
}

func BuildGameEventSubject(channelID string) string {
	return SubjectGamePrefix + channelID + SubjectGameEventSuffix
}
