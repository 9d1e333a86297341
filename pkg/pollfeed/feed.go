// Package pollfeed is the Go client for the live tally feed. A Feed dials
// the /v1/ws endpoint, subscribes to polls, and keeps a View per poll: the
// last authoritative recount plus the caller's own optimistic overlay. Call
// VotePending right before submitting a vote and VoteFailed when the
// submission is rejected; authoritative tally frames reconcile the view.
package pollfeed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// OnTally receives the viewer's current tally after every change: optimistic
// bumps, rollbacks, and authoritative recounts.
type OnTally func(Tally)

type command struct {
	Action string `json:"action"`
	PollID string `json:"poll_id"`
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const frameTally = "tally"

// Feed is one WebSocket connection to the tally feed.
type Feed struct {
	conn    *websocket.Conn
	onTally OnTally

	wmu sync.Mutex // serializes writes on the connection

	mu    sync.Mutex
	views map[uuid.UUID]*View
}

// Dial connects to the feed endpoint, e.g. "ws://host/v1/ws".
func Dial(ctx context.Context, url string, onTally OnTally) (*Feed, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Feed{
		conn:    conn,
		onTally: onTally,
		views:   make(map[uuid.UUID]*View),
	}, nil
}

// Subscribe asks the server for the poll's frames and starts a fresh view.
func (f *Feed) Subscribe(pollID uuid.UUID) error {
	f.mu.Lock()
	if _, ok := f.views[pollID]; !ok {
		f.views[pollID] = NewView(Tally{PollID: pollID, Counts: map[uuid.UUID]int{}})
	}
	f.mu.Unlock()
	return f.send(command{Action: "subscribe", PollID: pollID.String()})
}

// Unsubscribe drops the poll's view and tells the server to stop sending.
func (f *Feed) Unsubscribe(pollID uuid.UUID) error {
	f.mu.Lock()
	delete(f.views, pollID)
	f.mu.Unlock()
	return f.send(command{Action: "unsubscribe", PollID: pollID.String()})
}

// VotePending bumps the option locally so the viewer sees their own vote
// before the submission round trip completes.
func (f *Feed) VotePending(pollID, optionID uuid.UUID) {
	if v := f.view(pollID); v != nil {
		v.ApplyOptimistic(optionID)
		f.emit(v)
	}
}

// VoteFailed reverts one optimistic bump after a rejected submission.
func (f *Feed) VoteFailed(pollID, optionID uuid.UUID) {
	if v := f.view(pollID); v != nil {
		v.Rollback(optionID)
		f.emit(v)
	}
}

// Listen consumes frames until ctx is cancelled or the connection drops.
// Every authoritative tally reconciles the poll's view, discarding the
// optimistic overlay.
func (f *Feed) Listen(ctx context.Context) error {
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			f.conn.Close()
		case <-stopped:
		}
	}()

	for {
		_, payload, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		f.handle(payload)
	}
}

func (f *Feed) Close() error {
	return f.conn.Close()
}

func (f *Feed) handle(payload []byte) {
	var fr frame
	if err := json.Unmarshal(payload, &fr); err != nil {
		return
	}
	if fr.Type != frameTally {
		return
	}

	var t Tally
	if err := json.Unmarshal(fr.Data, &t); err != nil {
		return
	}
	v := f.view(t.PollID)
	if v == nil {
		return
	}
	v.Reconcile(t)
	f.emit(v)
}

func (f *Feed) send(cmd command) error {
	f.wmu.Lock()
	defer f.wmu.Unlock()
	return f.conn.WriteJSON(cmd)
}

func (f *Feed) view(pollID uuid.UUID) *View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[pollID]
}

func (f *Feed) emit(v *View) {
	if f.onTally != nil {
		f.onTally(v.Snapshot())
	}
}
