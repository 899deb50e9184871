package core

import (
	"fmt"

	"github.com/vovakirdan/clubroom-server/internal/proto"
)

// Attendee is an audience member of a room.
type Attendee struct {
	entity
	user User

	// remember marks an attendee whose account may rejoin a locked room after disconnecting.
	remember bool
	// leaving is set once the attendee was rejected, kicked or banned and
	// only waits for its connection to close.
	leaving bool
}

// AttendeeHandUpdate is broadcast when an attendee raises or lowers their hand.
type AttendeeHandUpdate struct {
	Attendee *Attendee
	Raised   bool
}

func newAttendee(room *Room, conn Connection, id EntityID, user User, remember bool) *Attendee {
	state := StateConnected
	if room.state == RoomPermissive && !room.IsApproved(user.AccountID) {
		state = StateAwaiting
	}

	a := &Attendee{
		user:     user,
		remember: remember,
	}
	a.init(room, a, conn, id, KindAttendee, state)
	return a
}

// User returns the identity the attendee joined with.
func (a *Attendee) User() User { return a.user }

// Approve admits an awaiting attendee.
func (a *Attendee) Approve() error {
	if err := a.check(StateAwaiting, "approve"); err != nil {
		return err
	}
	a.room.approved[a.user.AccountID] = struct{}{}
	a.remember = true
	a.updateState(StateConnected)
	a.room.approvals.Dispatch(a)
	return nil
}

// Reject turns away an awaiting attendee and closes the connection on the next tick.
func (a *Attendee) Reject() error {
	if err := a.check(StateAwaiting, "reject"); err != nil {
		return err
	}
	a.leaving = true
	a.forward(proto.EventSelfRejected, nil)
	a.disconnectLater(ClosePolicyViolation, "rejected")
	return nil
}

// Kick removes a connected attendee. The account has to be approved again
// to rejoin a permissive room.
func (a *Attendee) Kick() error {
	if err := a.check(StateConnected, "kick"); err != nil {
		return err
	}
	delete(a.room.approved, a.user.AccountID)
	a.remember = false
	a.leaving = true
	a.forward(proto.EventSelfKicked, nil)
	a.disconnectLater(ClosePolicyViolation, "kicked")
	return nil
}

// Ban removes the attendee and bars the account from the room.
func (a *Attendee) Ban() error {
	if err := a.room.checkLive(); err != nil {
		return err
	}
	if a.state == StateDisposed || a.leaving {
		return fmt.Errorf("%w: ban from %s", ErrInvalidAttendeeState, a.describeState())
	}
	a.room.banned[a.user.AccountID] = struct{}{}
	delete(a.room.approved, a.user.AccountID)
	a.remember = false
	a.leaving = true
	a.forward(proto.EventSelfBanned, nil)
	a.room.bans.Dispatch(a)
	a.disconnectLater(ClosePolicyViolation, "banned")
	return nil
}

// UpdateHand raises or lowers the attendee's hand.
func (a *Attendee) UpdateHand(raised bool) error {
	if err := a.check(StateConnected, "update hand"); err != nil {
		return err
	}
	a.room.handUpdates.Dispatch(AttendeeHandUpdate{Attendee: a, Raised: raised})
	return nil
}

func (a *Attendee) check(want EntityState, action string) error {
	if err := a.room.checkLive(); err != nil {
		return err
	}
	if a.state != want || a.leaving {
		return fmt.Errorf("%w: %s from %s", ErrInvalidAttendeeState, action, a.describeState())
	}
	return nil
}

func (a *Attendee) describeState() string {
	if a.leaving && a.state != StateDisposed {
		return "leaving"
	}
	return string(a.state)
}

func (a *Attendee) view() proto.Attendee {
	return proto.Attendee{
		ID:        int(a.id),
		AccountID: a.user.AccountID,
		FirstName: a.user.FirstName,
		LastName:  a.user.LastName,
		State:     string(a.state),
	}
}
