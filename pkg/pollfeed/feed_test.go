package pollfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func tallyFrame(t *testing.T, pollID uuid.UUID, counts map[uuid.UUID]int, total int) []byte {
	t.Helper()
	wire := make(map[string]int, len(counts))
	for id, n := range counts {
		wire[id.String()] = n
	}
	data, err := json.Marshal(map[string]any{
		"type": "tally",
		"data": map[string]any{
			"poll_id": pollID.String(),
			"counts":  wire,
			"total":   total,
		},
	})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return data
}

func waitCallback(t *testing.T, tallies chan Tally) Tally {
	t.Helper()
	select {
	case got := <-tallies:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tally callback")
		return Tally{}
	}
}

func TestFeedOptimisticThenReconcile(t *testing.T) {
	pollID := uuid.New()
	option := uuid.New()

	subscribed := make(chan command, 1)
	frames := make(chan []byte, 4)
	defer close(frames)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		subscribed <- cmd

		for data := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	tallies := make(chan Tally, 8)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed, err := Dial(context.Background(), url, func(view Tally) { tallies <- view })
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer feed.Close()

	if err := feed.Subscribe(pollID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = feed.Listen(ctx) }()

	select {
	case cmd := <-subscribed:
		if cmd.Action != "subscribe" || cmd.PollID != pollID.String() {
			t.Fatalf("server saw command %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the subscribe command")
	}

	// Authoritative baseline.
	frames <- tallyFrame(t, pollID, map[uuid.UUID]int{option: 2}, 2)
	got := waitCallback(t, tallies)
	if got.Total != 2 || got.Counts[option] != 2 {
		t.Fatalf("baseline tally = %+v, want total 2", got)
	}

	// The viewer's own in-flight vote shows up before the round trip.
	feed.VotePending(pollID, option)
	got = waitCallback(t, tallies)
	if got.Total != 3 || got.Counts[option] != 3 {
		t.Errorf("optimistic tally = %+v, want total 3", got)
	}

	// The next authoritative frame discards the overlay rather than
	// stacking on top of it.
	frames <- tallyFrame(t, pollID, map[uuid.UUID]int{option: 3}, 3)
	got = waitCallback(t, tallies)
	if got.Total != 3 || got.Counts[option] != 3 {
		t.Errorf("reconciled tally = %+v, want total 3", got)
	}
}

func TestFeedRollbackOnRejectedVote(t *testing.T) {
	pollID := uuid.New()
	option := uuid.New()

	frames := make(chan []byte, 2)
	defer close(frames)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		for data := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	tallies := make(chan Tally, 8)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed, err := Dial(context.Background(), url, func(view Tally) { tallies <- view })
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer feed.Close()

	if err := feed.Subscribe(pollID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = feed.Listen(ctx) }()

	frames <- tallyFrame(t, pollID, map[uuid.UUID]int{option: 1}, 1)
	if got := waitCallback(t, tallies); got.Total != 1 {
		t.Fatalf("baseline total = %d, want 1", got.Total)
	}

	// A submission that comes back AlreadyVoted reverts the local bump.
	feed.VotePending(pollID, option)
	if got := waitCallback(t, tallies); got.Total != 2 {
		t.Fatalf("optimistic total = %d, want 2", got.Total)
	}
	feed.VoteFailed(pollID, option)
	got := waitCallback(t, tallies)
	if got.Total != 1 || got.Counts[option] != 1 {
		t.Errorf("rolled-back tally = %+v, want total 1", got)
	}
}
