package core

import "github.com/vovakirdan/clubroom-server/internal/proto"

// Display is a passive client that mirrors the room on a shared screen.
type Display struct {
	entity
}

func newDisplay(room *Room, conn Connection, id EntityID) *Display {
	d := &Display{}
	d.init(room, d, conn, id, KindDisplay, StateConnected)
	listen(&d.subs, &room.pinUpdates, func(pin string) {
		d.forward(proto.EventRoomPINUpdate, proto.PINUpdate{PIN: pin})
	})
	return d
}

func (d *Display) view() proto.Display {
	return proto.Display{ID: int(d.id), State: string(d.state)}
}
