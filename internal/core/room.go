package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/proto"
)

// RoomState controls who may join a room.
type RoomState string

const (
	// RoomLocked admits only accounts that were already part of the session.
	RoomLocked RoomState = "locked"
	// RoomUnlocked admits everyone.
	RoomUnlocked RoomState = "unlocked"
	// RoomPermissive admits everyone, but unapproved accounts wait for the presenter.
	RoomPermissive RoomState = "permissive"
	// RoomDisposed is terminal.
	RoomDisposed RoomState = "disposed"
)

// ParseRoomState accepts the live states a presenter can switch between.
func ParseRoomState(s string) (RoomState, error) {
	switch st := RoomState(s); st {
	case RoomLocked, RoomUnlocked, RoomPermissive:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomState, s)
	}
}

// DisconnectedAttendee is what a room remembers about an attendee who left.
type DisconnectedAttendee struct {
	FirstName string
	LastName  string
}

// RoomInfo seeds a new room.
type RoomInfo struct {
	ID        int64
	RoomID    string
	PIN       string
	Title     string
	Presenter User
	State     RoomState
	CreatedAt time.Time
}

// Option configures a Room.
type Option func(*Room)

// WithScheduler sets where deferred disconnects run.
func WithScheduler(s Scheduler) Option {
	return func(r *Room) { r.scheduler = s }
}

// WithLogger sets the room logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Room) { r.log = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.now = now }
}

// Room is the aggregate root of one live presentation session.
// It is not safe for concurrent use; every call must run on the hub goroutine.
type Room struct {
	id        int64
	roomID    string
	pin       string
	title     string
	owner     User
	state     RoomState
	createdAt time.Time

	presenter             *Presenter
	presenterLastDisposed time.Time

	approved              map[string]struct{}
	banned                map[string]struct{}
	attendees             map[EntityID]*Attendee
	disconnectedAttendees map[string]DisconnectedAttendee
	displays              map[EntityID]*Display
	attendeeIDs           *IDPool
	displayIDs            *IDPool

	pinUpdates         Channel[string]
	titleUpdates       Channel[string]
	stateUpdates       Channel[RoomState]
	entityAdds         Channel[Entity]
	entityDisposals    Channel[Entity]
	entityStateUpdates Channel[Entity]
	approvals          Channel[*Attendee]
	bans               Channel[*Attendee]
	handUpdates        Channel[AttendeeHandUpdate]

	scheduler Scheduler
	now       func() time.Time
	log       *zerolog.Logger
}

// NewRoom builds a live room. An empty state defaults to unlocked.
func NewRoom(info RoomInfo, opts ...Option) *Room {
	nop := zerolog.Nop()
	r := &Room{
		id:                    info.ID,
		roomID:                info.RoomID,
		pin:                   info.PIN,
		title:                 info.Title,
		owner:                 info.Presenter,
		state:                 info.State,
		createdAt:             info.CreatedAt,
		presenterLastDisposed: info.CreatedAt,
		approved:              make(map[string]struct{}),
		banned:                make(map[string]struct{}),
		attendees:             make(map[EntityID]*Attendee),
		disconnectedAttendees: make(map[string]DisconnectedAttendee),
		displays:              make(map[EntityID]*Display),
		attendeeIDs:           NewIDPool(),
		displayIDs:            NewIDPool(),
		scheduler:             ImmediateScheduler,
		now:                   time.Now,
		log:                   &nop,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.state == "" {
		r.state = RoomUnlocked
	}
	if r.createdAt.IsZero() {
		r.createdAt = r.now()
		r.presenterLastDisposed = r.createdAt
	}
	return r
}

// ID returns the persisted internal id.
func (r *Room) ID() int64 { return r.id }

// RoomID returns the durable room identifier.
func (r *Room) RoomID() string { return r.roomID }

// PIN returns the current live lookup key.
func (r *Room) PIN() string { return r.pin }

// Title returns the room title.
func (r *Room) Title() string { return r.title }

// Owner returns the identity of the presenter the room was created for.
func (r *Room) Owner() User { return r.owner }

// State returns the room state.
func (r *Room) State() RoomState { return r.state }

// CreatedAt returns the creation time.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// PresenterLastDisposed returns when the presenter connection last ended,
// or the creation time if a presenter never connected.
func (r *Room) PresenterLastDisposed() time.Time { return r.presenterLastDisposed }

// Presenter returns the connected presenter, if any.
func (r *Room) Presenter() (*Presenter, bool) { return r.presenter, r.presenter != nil }

// HasPresenter reports whether a presenter is connected.
func (r *Room) HasPresenter() bool { return r.presenter != nil }

// IsApproved reports whether the account was approved by the presenter.
func (r *Room) IsApproved(accountID string) bool {
	_, ok := r.approved[accountID]
	return ok
}

// IsBanned reports whether the account is banned from the room.
func (r *Room) IsBanned(accountID string) bool {
	_, ok := r.banned[accountID]
	return ok
}

// WasConnected reports whether the account left the room in good standing.
func (r *Room) WasConnected(accountID string) (DisconnectedAttendee, bool) {
	d, ok := r.disconnectedAttendees[accountID]
	return d, ok
}

// Attendee returns the live attendee with the given id.
func (r *Room) Attendee(id EntityID) (*Attendee, bool) {
	a, ok := r.attendees[id]
	return a, ok
}

// AttendeeByAccount returns a live attendee session of the account.
func (r *Room) AttendeeByAccount(accountID string) (*Attendee, bool) {
	for _, a := range r.attendees {
		if a.user.AccountID == accountID {
			return a, true
		}
	}
	return nil, false
}

// Attendees returns the live attendees ordered by id.
func (r *Room) Attendees() []*Attendee {
	out := make([]*Attendee, 0, len(r.attendees))
	for _, a := range r.attendees {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Displays returns the live displays ordered by id.
func (r *Room) Displays() []*Display {
	out := make([]*Display, 0, len(r.displays))
	for _, d := range r.displays {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// AddAttendee attaches an attendee connection.
func (r *Room) AddAttendee(conn Connection, user User) (*Attendee, error) {
	if err := r.checkLive(); err != nil {
		return nil, err
	}
	_, remembered := r.disconnectedAttendees[user.AccountID]
	remember := remembered || r.state == RoomUnlocked || r.IsApproved(user.AccountID)

	a := newAttendee(r, conn, r.attendeeIDs.Generate(), user, remember)
	r.attendees[a.id] = a
	delete(r.disconnectedAttendees, user.AccountID)

	r.log.Info().
		Str("room_id", r.roomID).
		Int("entity_id", int(a.id)).
		Str("account_id", user.AccountID).
		Str("state", string(a.state)).
		Msg("attendee added")
	r.entityAdds.Dispatch(a)
	return a, nil
}

// AddDisplay attaches a display connection.
func (r *Room) AddDisplay(conn Connection) (*Display, error) {
	if err := r.checkLive(); err != nil {
		return nil, err
	}
	d := newDisplay(r, conn, r.displayIDs.Generate())
	r.displays[d.id] = d

	r.log.Info().Str("room_id", r.roomID).Int("entity_id", int(d.id)).Msg("display added")
	r.entityAdds.Dispatch(d)
	return d, nil
}

// AddPresenter attaches the presenter connection. Refusing a second concurrent
// presenter is the caller's job.
func (r *Room) AddPresenter(conn Connection) (*Presenter, error) {
	if err := r.checkLive(); err != nil {
		return nil, err
	}
	p := newPresenter(r, conn)
	r.presenter = p

	r.log.Info().Str("room_id", r.roomID).Msg("presenter added")
	r.entityAdds.Dispatch(p)
	return p, nil
}

// UpdatePIN changes the PIN and broadcasts it. Uniqueness is the caller's job.
func (r *Room) UpdatePIN(pin string) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	r.pin = pin
	r.pinUpdates.Dispatch(pin)
	return nil
}

// UpdateTitle changes the title and broadcasts it.
func (r *Room) UpdateTitle(title string) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	r.title = title
	r.titleUpdates.Dispatch(title)
	return nil
}

// UpdateState switches between the live states and broadcasts the change.
// Attendees already in the room stay.
func (r *Room) UpdateState(state RoomState) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if _, err := ParseRoomState(string(state)); err != nil {
		return err
	}
	r.state = state
	r.stateUpdates.Dispatch(state)
	return nil
}

// Dispose ends the room. The disposed state is broadcast at once; connections
// are closed on the next scheduling tick.
func (r *Room) Dispose() error {
	if err := r.checkLive(); err != nil {
		return err
	}
	r.state = RoomDisposed
	r.stateUpdates.Dispatch(RoomDisposed)
	r.log.Info().Str("room_id", r.roomID).Str("pin", r.pin).Msg("room disposed")

	r.scheduler.Defer(func() {
		for _, a := range r.Attendees() {
			a.Disconnect(CloseGoingAway, "room disposed")
		}
		for _, d := range r.Displays() {
			d.Disconnect(CloseGoingAway, "room disposed")
		}
		if r.presenter != nil {
			r.presenter.Disconnect(CloseGoingAway, "room disposed")
		}
		r.presenterLastDisposed = r.now()
	})
	return nil
}

// Snapshot describes the room as seen by e.
func (r *Room) Snapshot(e Entity) proto.Snapshot {
	snap := proto.Snapshot{
		RoomID: r.roomID,
		Title:  r.title,
		State:  string(r.state),
		Self: &proto.Self{
			ID:    int(e.ID()),
			Kind:  string(e.Kind()),
			State: string(e.State()),
		},
	}

	switch e.(type) {
	case *Display:
		snap.PIN = r.pin
	case *Presenter:
		snap.PIN = r.pin
		snap.Attendees = make([]proto.Attendee, 0, len(r.attendees))
		for _, a := range r.Attendees() {
			snap.Attendees = append(snap.Attendees, a.view())
		}
		snap.Displays = make([]proto.Display, 0, len(r.displays))
		for _, d := range r.Displays() {
			snap.Displays = append(snap.Displays, d.view())
		}
		snap.Approved = sortedKeys(r.approved)
		snap.Banned = sortedKeys(r.banned)
	}
	return snap
}

func (r *Room) checkLive() error {
	if r.state == RoomDisposed {
		return fmt.Errorf("%w: %s", ErrRoomDisposed, r.roomID)
	}
	return nil
}

// entityDisposed evicts e after it disposed itself.
func (r *Room) entityDisposed(e Entity) {
	switch v := e.(type) {
	case *Attendee:
		if r.attendees[v.id] != v {
			return
		}
		delete(r.attendees, v.id)
		r.attendeeIDs.Release(v.id)
		if v.remember {
			r.disconnectedAttendees[v.user.AccountID] = DisconnectedAttendee{
				FirstName: v.user.FirstName,
				LastName:  v.user.LastName,
			}
		}
		r.log.Info().Str("room_id", r.roomID).Int("entity_id", int(v.id)).Str("account_id", v.user.AccountID).Msg("attendee disposed")
	case *Display:
		if r.displays[v.id] != v {
			return
		}
		delete(r.displays, v.id)
		r.displayIDs.Release(v.id)
		r.log.Info().Str("room_id", r.roomID).Int("entity_id", int(v.id)).Msg("display disposed")
	case *Presenter:
		if r.presenter == v {
			r.presenter = nil
		}
		r.presenterLastDisposed = r.now()
		r.log.Info().Str("room_id", r.roomID).Msg("presenter disposed")
	default:
		r.log.Error().Err(ErrInvalidEntityKind).Str("room_id", r.roomID).Msgf("%T", e)
		return
	}
	r.entityDisposals.Dispatch(e)
}

func (r *Room) entityStateUpdated(e Entity) {
	r.entityStateUpdates.Dispatch(e)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
