package events

import (
	"strings"

	"github.com/google/uuid"
)

// Redis channel naming. One channel per poll; subscribers watching a poll
// receive every row-level change for it.
const (
	ChannelPrefixPoll   = "channel:poll:"
	ChannelPatternPolls = "channel:poll:*"
)

func PollChannel(pollID uuid.UUID) string {
	return ChannelPrefixPoll + pollID.String()
}

// PollIDFromChannel reports which poll a channel name refers to.
func PollIDFromChannel(channel string) (uuid.UUID, bool) {
	if !strings.HasPrefix(channel, ChannelPrefixPoll) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(channel, ChannelPrefixPoll))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
