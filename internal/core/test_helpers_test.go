package core

import (
	"encoding/json"
	"testing"
	"time"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// fakeConn records outbound frames and close calls in order.
type fakeConn struct {
	frames      []frame
	ops         []string
	closes      int
	closeCode   CloseCode
	closeReason string
}

func (c *fakeConn) Send(payload []byte) error {
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	c.ops = append(c.ops, f.Event)
	return nil
}

func (c *fakeConn) Close(code CloseCode, reason string) error {
	c.closes++
	c.closeCode = code
	c.closeReason = reason
	c.ops = append(c.ops, "close")
	return nil
}

func (c *fakeConn) events() []string {
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Event)
	}
	return out
}

// last decodes the data of the most recent frame with the given event into v.
func (c *fakeConn) last(t *testing.T, event string, v any) bool {
	t.Helper()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Event != event {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(c.frames[i].Data, v); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
		}
		return true
	}
	return false
}

// manualScheduler holds deferred work until tick is called.
type manualScheduler struct {
	queue []func()
}

func (s *manualScheduler) Defer(fn func()) {
	s.queue = append(s.queue, fn)
}

func (s *manualScheduler) tick() {
	q := s.queue
	s.queue = nil
	for _, fn := range q {
		fn()
	}
}

var testEpoch = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func newTestRoom(t *testing.T, state RoomState) (*Room, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	room := NewRoom(RoomInfo{
		ID:        1,
		RoomID:    "room-1",
		PIN:       "ABC234",
		Title:     "Club night",
		Presenter: User{AccountID: "presenter", FirstName: "Pat", LastName: "Host", NumericID: 1},
		State:     state,
		CreatedAt: testEpoch,
	}, WithScheduler(sched), WithClock(func() time.Time { return testEpoch.Add(time.Hour) }))
	return room, sched
}

func user(id string) User {
	return User{AccountID: id, FirstName: "First " + id, LastName: "Last " + id}
}
