package rooms

import (
	"net/http"

	"github.com/vovakirdan/clubroom-server/internal/core"
)

func guardLive(room *core.Room) error {
	if room.State() == core.RoomDisposed {
		return errRoomDisposed(room.RoomID())
	}
	return nil
}

func guardPresenter(room *core.Room, user core.User) error {
	if err := guardLive(room); err != nil {
		return err
	}
	if user.AccountID != room.Owner().AccountID {
		return guardError(http.StatusForbidden, CodeNotPresenter, "only the presenter may do this")
	}
	return nil
}

func guardPresenterAttach(room *core.Room, user core.User) error {
	if err := guardPresenter(room, user); err != nil {
		return err
	}
	if room.HasPresenter() {
		return guardError(http.StatusConflict, CodePresenterConnected, "presenter is already connected")
	}
	return nil
}

func guardAttendeeAttach(room *core.Room, user core.User) error {
	if err := guardLive(room); err != nil {
		return err
	}
	acct := user.AccountID
	if room.IsBanned(acct) {
		return guardError(http.StatusForbidden, CodeBanned, "banned from this room")
	}
	if acct == room.Owner().AccountID {
		return guardError(http.StatusForbidden, CodePresenterCannotAttend, "the presenter cannot join as an attendee")
	}
	if _, ok := room.AttendeeByAccount(acct); ok {
		return guardError(http.StatusConflict, CodeAlreadyConnected, "already connected to this room")
	}
	if room.State() == core.RoomLocked {
		_, rejoining := room.WasConnected(acct)
		if !rejoining && !room.IsApproved(acct) {
			return guardError(http.StatusLocked, CodeRoomLocked, "room is locked")
		}
	}
	return nil
}
