package rooms

import (
	"errors"
	"fmt"
	"net/http"
)

// Guard error codes.
const (
	CodeRoomNotFound          = "room_not_found"
	CodePINNotFound           = "pin_not_found"
	CodeRoomDisposed          = "room_disposed"
	CodeNotPresenter          = "not_presenter"
	CodePresenterConnected    = "presenter_connected"
	CodeBanned                = "banned"
	CodePresenterCannotAttend = "presenter_cannot_attend"
	CodeAlreadyConnected      = "already_connected"
	CodeRoomLocked            = "room_locked"
)

// ErrPINExhausted is returned when no unused PIN could be drawn.
var ErrPINExhausted = errors.New("could not allocate a unique pin")

// GuardError rejects a request before it reaches a room.
// Status is the HTTP status the transport answers with.
type GuardError struct {
	Status  int
	Code    string
	Message string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func guardError(status int, code, format string, args ...any) *GuardError {
	return &GuardError{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func errRoomNotFound(roomID string) *GuardError {
	return guardError(http.StatusNotFound, CodeRoomNotFound, "room %s not found", roomID)
}

func errRoomDisposed(roomID string) *GuardError {
	return guardError(http.StatusConflict, CodeRoomDisposed, "room %s is disposed", roomID)
}

// AsGuardError extracts a GuardError from err.
func AsGuardError(err error) (*GuardError, bool) {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
