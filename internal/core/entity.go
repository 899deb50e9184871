package core

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/clubroom-server/internal/proto"
)

// EntityState is the lifecycle state of a room participant.
type EntityState string

const (
	StateConnected EntityState = "connected"
	StateAwaiting  EntityState = "awaiting"
	StateDisposed  EntityState = "disposed"
)

// EntityKind names the closed set of entity variants.
type EntityKind string

const (
	KindAttendee  EntityKind = "attendee"
	KindDisplay   EntityKind = "display"
	KindPresenter EntityKind = "presenter"
)

// Entity is a connection-backed room participant.
// It is implemented only by *Attendee, *Display and *Presenter.
type Entity interface {
	ID() EntityID
	Kind() EntityKind
	State() EntityState
	Room() *Room
	Dispatch(event string, data any) error
	Disconnect(code CloseCode, reason string)
	Dispose() error

	base() *entity
}

// entity holds the behaviour shared by every variant.
// room is a non-owning back-reference: the room owns its entities, never the reverse.
type entity struct {
	id     EntityID
	kind   EntityKind
	state  EntityState
	conn   Connection
	closed bool
	room   *Room
	self   Entity
	subs   Disposers
}

func (e *entity) init(room *Room, self Entity, conn Connection, id EntityID, kind EntityKind, state EntityState) {
	e.id = id
	e.kind = kind
	e.state = state
	e.conn = conn
	e.room = room
	e.self = self

	listen(&e.subs, &room.titleUpdates, func(title string) {
		e.forward(proto.EventRoomTitleUpdate, proto.TitleUpdate{Title: title})
	})
	listen(&e.subs, &room.stateUpdates, func(state RoomState) {
		e.forward(proto.EventRoomStateUpdate, proto.StateUpdate{State: string(state)})
	})
}

func (e *entity) base() *entity { return e }

// ID returns the entity id, unique among live entities of the same kind.
func (e *entity) ID() EntityID { return e.id }

// Kind returns the entity variant.
func (e *entity) Kind() EntityKind { return e.kind }

// State returns the current lifecycle state.
func (e *entity) State() EntityState { return e.state }

// Room returns the room the entity belongs to.
func (e *entity) Room() *Room { return e.room }

// Dispatch serializes {event, data} to the entity's connection.
func (e *entity) Dispatch(event string, data any) error {
	if e.conn == nil || e.closed {
		return fmt.Errorf("%w: %s %d", ErrConnectionClosed, e.kind, e.id)
	}
	payload, err := json.Marshal(proto.Outbound{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if err := e.conn.Send(payload); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

// forward dispatches a broadcast; failures only matter to the receiving client.
func (e *entity) forward(event string, data any) {
	if err := e.Dispatch(event, data); err != nil {
		e.room.log.Debug().Err(err).
			Str("room_id", e.room.roomID).
			Str("kind", string(e.kind)).
			Int("entity_id", int(e.id)).
			Str("event", event).
			Msg("dropped outbound event")
	}
}

// Disconnect closes the transport. Only the first call has an effect.
func (e *entity) Disconnect(code CloseCode, reason string) {
	if e.closed || e.conn == nil {
		return
	}
	e.closed = true
	if err := e.conn.Close(code, reason); err != nil {
		e.room.log.Debug().Err(err).
			Str("room_id", e.room.roomID).
			Str("kind", string(e.kind)).
			Int("entity_id", int(e.id)).
			Msg("close connection")
	}
}

// disconnectLater closes the transport on the next scheduling tick so a
// notification dispatched just before can be flushed first.
func (e *entity) disconnectLater(code CloseCode, reason string) {
	e.room.scheduler.Defer(func() {
		e.Disconnect(code, reason)
	})
}

// Dispose ends the entity. A second call fails with ErrEntityDisposed.
func (e *entity) Dispose() error {
	if e.state == StateDisposed {
		return fmt.Errorf("%w: %s %d", ErrEntityDisposed, e.kind, e.id)
	}
	e.state = StateDisposed
	e.conn = nil
	e.subs.Dispose()
	e.room.entityDisposed(e.self)
	return nil
}

func (e *entity) updateState(state EntityState) {
	e.state = state
	e.forward(proto.EventSelfStateUpdate, proto.StateUpdate{State: string(state)})
	e.room.entityStateUpdated(e.self)
}
