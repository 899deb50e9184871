package core

import (
	"errors"
	"fmt"
)

// Error codes sent to clients alongside a failed command.
const (
	ErrCodeRoomDisposed         = "room_disposed"
	ErrCodeConnectionClosed     = "connection_closed"
	ErrCodeEntityDisposed       = "entity_disposed"
	ErrCodeInvalidAttendeeState = "invalid_attendee_state"
	ErrCodeInvalidRoomState     = "invalid_room_state"
	ErrCodeAttendeeNotFound     = "attendee_not_found"
	ErrCodeBadRequest           = "bad_request"
	ErrCodeInternal             = "internal_error"
)

var (
	// ErrConnectionClosed is returned when dispatching to a disconnected entity.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrEntityDisposed is returned when an entity is disposed twice.
	ErrEntityDisposed = errors.New("entity already disposed")
	// ErrInvalidEntityKind means the room was handed an entity it does not know.
	ErrInvalidEntityKind = errors.New("invalid entity kind")
	// ErrRoomDisposed is the room-state error: the room no longer accepts mutations.
	ErrRoomDisposed = errors.New("room disposed")
	// ErrInvalidRoomState is returned for an unknown or non-live room state value.
	ErrInvalidRoomState = errors.New("invalid room state")
	// ErrInvalidAttendeeState is returned when a moderation action does not fit the attendee's state.
	ErrInvalidAttendeeState = errors.New("invalid attendee state")
	// ErrAttendeeNotFound is returned when a command addresses an attendee id that is not live.
	ErrAttendeeNotFound = errors.New("attendee not found")
	// ErrHubStopped is returned when a task is submitted to a hub that is no longer running.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// AsCoreError maps err to the code/message pair reported to clients.
func AsCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrRoomDisposed):
		return coreError(ErrCodeRoomDisposed, err.Error())
	case errors.Is(err, ErrConnectionClosed):
		return coreError(ErrCodeConnectionClosed, err.Error())
	case errors.Is(err, ErrEntityDisposed):
		return coreError(ErrCodeEntityDisposed, err.Error())
	case errors.Is(err, ErrInvalidAttendeeState):
		return coreError(ErrCodeInvalidAttendeeState, err.Error())
	case errors.Is(err, ErrInvalidRoomState):
		return coreError(ErrCodeInvalidRoomState, err.Error())
	case errors.Is(err, ErrAttendeeNotFound):
		return coreError(ErrCodeAttendeeNotFound, err.Error())
	default:
		return coreError(ErrCodeInternal, "internal error")
	}
}

// BadRequest builds a CoreError for malformed client input.
func BadRequest(format string, args ...any) *CoreError {
	return coreError(ErrCodeBadRequest, fmt.Sprintf(format, args...))
}
