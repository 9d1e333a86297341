package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/tally"
	"quickpoll/internal/events"
	"quickpoll/internal/live"
	"quickpoll/internal/transport/httpdto"
	"quickpoll/pkg/logger"

	"github.com/google/uuid"
)

// Recounter recomputes a poll's tally from authoritative state.
type Recounter interface {
	ComputeTally(ctx context.Context, pollID uuid.UUID) (tally.Tally, error)
}

// PollReader loads current poll attributes.
type PollReader interface {
	Get(ctx context.Context, id uuid.UUID) (poll.Poll, []poll.Option, error)
}

// Message is one frame pushed to WebSocket viewers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	MessageTally       = "tally"
	MessagePoll        = "poll"
	MessagePollDeleted = "poll_deleted"
)

// watcherSource adapts the poll and vote services to the watcher's Source.
type watcherSource struct {
	polls PollReader
	votes Recounter
}

func (s watcherSource) Poll(ctx context.Context, pollID uuid.UUID) (poll.Poll, []poll.Option, error) {
	return s.polls.Get(ctx, pollID)
}

func (s watcherSource) ComputeTally(ctx context.Context, pollID uuid.UUID) (tally.Tally, error) {
	return s.votes.ComputeTally(ctx, pollID)
}

// RedisBridge runs one live.Watcher per poll that has WebSocket viewers. The
// hub reports channel lifecycle: the first subscriber on a poll channel
// starts a watcher, the last one leaving cancels it, so each poll's Redis
// subscription lives exactly as long as its audience. Watcher recounts come
// back through the Sink callbacks and are broadcast wholesale. Viewers
// receive replacement state, never deltas.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	source     live.Source
	log        *logger.Logger

	mu       sync.Mutex
	ctx      context.Context
	watchers map[string]context.CancelFunc
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, polls PollReader, votes Recounter, log *logger.Logger) *RedisBridge {
	return &RedisBridge{
		subscriber: subscriber,
		hub:        hub,
		source:     watcherSource{polls: polls, votes: votes},
		log:        log,
		watchers:   make(map[string]context.CancelFunc),
	}
}

// Run installs the bridge as the hub's lifecycle observer and blocks until
// ctx is cancelled, then stops every watcher.
func (b *RedisBridge) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.hub.SetObserver(b)
	<-ctx.Done()
	b.hub.SetObserver(nil)

	b.mu.Lock()
	for channel, cancel := range b.watchers {
		cancel()
		delete(b.watchers, channel)
	}
	b.mu.Unlock()

	return ctx.Err()
}

// ChannelActive starts a watcher for the poll behind the channel.
func (b *RedisBridge) ChannelActive(channel string) {
	pollID, ok := events.PollIDFromChannel(channel)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil || b.ctx.Err() != nil {
		return
	}
	if _, running := b.watchers[channel]; running {
		return
	}

	ctx, cancel := context.WithCancel(b.ctx)
	b.watchers[channel] = cancel

	w := live.NewWatcher(pollID, b.subscriber, b.source, b, b.log)
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil && b.log != nil {
			b.log.Errorf("watcher for poll %s stopped: %v", pollID, err)
		}
	}()
}

// ChannelIdle cancels the poll's watcher once nobody is watching.
func (b *RedisBridge) ChannelIdle(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.watchers[channel]; ok {
		cancel()
		delete(b.watchers, channel)
	}
}

// TallyUpdated implements live.Sink: every recount replaces the viewers'
// tally wholesale.
func (b *RedisBridge) TallyUpdated(pollID uuid.UUID, t tally.Tally) {
	b.broadcast(events.PollChannel(pollID), Message{Type: MessageTally, Data: httpdto.ToTallyView(t)})
}

func (b *RedisBridge) PollUpdated(p poll.Poll) {
	b.broadcast(events.PollChannel(p.ID), Message{Type: MessagePoll, Data: httpdto.ToPollView(p, nil)})
}

func (b *RedisBridge) PollDeleted(pollID uuid.UUID) {
	b.broadcast(events.PollChannel(pollID), Message{Type: MessagePollDeleted, Data: map[string]string{"poll_id": pollID.String()}})
}

func (b *RedisBridge) broadcast(channel string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.hub.Broadcast(channel, data)
}
