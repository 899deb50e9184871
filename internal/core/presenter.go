package core

import "github.com/vovakirdan/clubroom-server/internal/proto"

// PresenterID is the fixed entity id of a room's presenter.
const PresenterID EntityID = 0

// Presenter runs the room. It receives a projection of every room-level
// event, enough to drive a moderation view without further queries.
type Presenter struct {
	entity
}

func newPresenter(room *Room, conn Connection) *Presenter {
	p := &Presenter{}
	p.init(room, p, conn, PresenterID, KindPresenter, StateConnected)

	listen(&p.subs, &room.pinUpdates, func(pin string) {
		p.forward(proto.EventRoomPINUpdate, proto.PINUpdate{PIN: pin})
	})
	listen(&p.subs, &room.entityAdds, p.onEntityAdded)
	listen(&p.subs, &room.entityDisposals, p.onEntityDisposed)
	listen(&p.subs, &room.entityStateUpdates, p.onEntityStateUpdated)
	listen(&p.subs, &room.approvals, func(a *Attendee) {
		p.forward(proto.EventAttendeeApproved, account(a.user))
	})
	listen(&p.subs, &room.bans, func(a *Attendee) {
		p.forward(proto.EventAttendeeBanned, account(a.user))
	})
	listen(&p.subs, &room.handUpdates, func(u AttendeeHandUpdate) {
		p.forward(proto.EventAttendeeHandUpdate, proto.HandUpdate{ID: int(u.Attendee.id), Raised: u.Raised})
	})
	return p
}

func (p *Presenter) onEntityAdded(e Entity) {
	switch v := e.(type) {
	case *Attendee:
		p.forward(proto.EventAttendeeAdded, v.view())
	case *Display:
		p.forward(proto.EventDisplayAdded, v.view())
	}
}

func (p *Presenter) onEntityDisposed(e Entity) {
	switch v := e.(type) {
	case *Attendee:
		p.forward(proto.EventAttendeeDisposed, proto.EntityRef{ID: int(v.id)})
	case *Display:
		p.forward(proto.EventDisplayDisposed, proto.EntityRef{ID: int(v.id)})
	}
}

func (p *Presenter) onEntityStateUpdated(e Entity) {
	switch v := e.(type) {
	case *Attendee:
		p.forward(proto.EventAttendeeStateUpdate, proto.EntityStateUpdate{ID: int(v.id), State: string(v.state)})
	case *Display:
		p.forward(proto.EventDisplayStateUpdate, proto.EntityStateUpdate{ID: int(v.id), State: string(v.state)})
	}
}

func account(u User) proto.Account {
	return proto.Account{AccountID: u.AccountID, FirstName: u.FirstName, LastName: u.LastName}
}
