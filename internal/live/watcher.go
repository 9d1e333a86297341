package live

import (
	"context"
	"encoding/json"
	"sync"

	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/tally"
	"quickpoll/internal/events"
	"quickpoll/pkg/logger"

	"github.com/google/uuid"
)

// Source is what the watcher re-reads on every notification. Both methods
// return authoritative state; the watcher never applies event payloads as
// deltas.
type Source interface {
	ComputeTally(ctx context.Context, pollID uuid.UUID) (tally.Tally, error)
	Poll(ctx context.Context, pollID uuid.UUID) (poll.Poll, []poll.Option, error)
}

// Sink receives the replaced state after each recount.
type Sink interface {
	TallyUpdated(pollID uuid.UUID, t tally.Tally)
	PollUpdated(p poll.Poll)
	PollDeleted(pollID uuid.UUID)
}

// Watcher observes one poll's change-notification channel. On every vote
// event it re-runs a full recount and replaces its held tally wholesale;
// incrementing in place would drift on missed or reordered events, a full
// recount self-heals. On poll updates it replaces the poll attributes
// wholesale.
//
// The subscription is scoped to Run's context: cancelling it is the
// guaranteed unsubscribe on every exit path.
type Watcher struct {
	pollID uuid.UUID
	sub    events.Subscriber
	source Source
	sink   Sink
	log    *logger.Logger

	mu    sync.RWMutex
	poll  poll.Poll
	tally tally.Tally
}

func NewWatcher(pollID uuid.UUID, sub events.Subscriber, source Source, sink Sink, log *logger.Logger) *Watcher {
	return &Watcher{
		pollID: pollID,
		sub:    sub,
		source: source,
		sink:   sink,
		log:    log,
	}
}

// Run primes the watcher with a recount, then blocks consuming notifications
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.refreshPoll(ctx); err != nil {
		return err
	}
	if err := w.recount(ctx); err != nil {
		return err
	}

	channel := events.PollChannel(w.pollID)
	return w.sub.Subscribe(ctx, []string{channel}, func(_ string, payload []byte) {
		w.handle(ctx, payload)
	})
}

// Tally returns the most recent recount.
func (w *Watcher) Tally() tally.Tally {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tally
}

// Poll returns the most recently fetched poll attributes.
func (w *Watcher) Poll() poll.Poll {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.poll
}

func (w *Watcher) handle(ctx context.Context, payload []byte) {
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if w.log != nil {
			w.log.Warnf("dropping malformed change notification for poll %s: %v", w.pollID, err)
		}
		return
	}
	if env.PollID != w.pollID {
		return
	}

	switch env.Table {
	case events.TableVotes, events.TableOptions:
		if err := w.recount(ctx); err != nil && w.log != nil {
			w.log.Errorf("recount failed for poll %s: %v", w.pollID, err)
		}
	case events.TablePolls:
		if env.Action == events.ActionDelete {
			if w.sink != nil {
				w.sink.PollDeleted(w.pollID)
			}
			return
		}
		if err := w.refreshPoll(ctx); err != nil && w.log != nil {
			w.log.Errorf("poll refresh failed for poll %s: %v", w.pollID, err)
		}
	}
}

func (w *Watcher) recount(ctx context.Context) error {
	t, err := w.source.ComputeTally(ctx, w.pollID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.tally = t
	w.mu.Unlock()

	if w.sink != nil {
		w.sink.TallyUpdated(w.pollID, t)
	}
	return nil
}

func (w *Watcher) refreshPoll(ctx context.Context) error {
	p, _, err := w.source.Poll(ctx, w.pollID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.poll = p
	w.mu.Unlock()

	if w.sink != nil {
		w.sink.PollUpdated(p)
	}
	return nil
}
