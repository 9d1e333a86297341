package events

import (
	"context"
	"encoding/json"
)

// Publisher delivers change notifications for a poll's subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber is a blocking subscription to one or more channel patterns.
// It returns when ctx is cancelled, which is the guaranteed-unsubscribe
// path for every caller.
type Subscriber interface {
	Subscribe(ctx context.Context, channels []string, handler func(channel string, payload []byte)) error
}

// PublishEnvelope marshals and publishes a change notification on the
// poll's channel.
func PublishEnvelope(ctx context.Context, p Publisher, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Publish(ctx, PollChannel(env.PollID), data)
}
