package http

import (
	"context"
	"encoding/json"

	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/proto"
	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
)

const errCodeUnknownEvent = "unknown_event"

type command func(ctx context.Context) error

var moderation = map[string]rooms.Action{
	proto.InboundAttendeeApprove: rooms.ActionApprove,
	proto.InboundAttendeeReject:  rooms.ActionReject,
	proto.InboundAttendeeKick:    rooms.ActionKick,
	proto.InboundAttendeeBan:     rooms.ActionBan,
}

// inboundToCommand maps a client frame to a service call for the sending entity.
func inboundToCommand(svc *rooms.Service, e core.Entity, roomID string, in proto.Inbound) (command, *proto.Error) {
	switch v := e.(type) {
	case *core.Presenter:
		return presenterCommand(svc, roomID, in)
	case *core.Attendee:
		return attendeeCommand(svc, v, in)
	default:
		return nil, unknownEvent(in)
	}
}

func presenterCommand(svc *rooms.Service, roomID string, in proto.Inbound) (command, *proto.Error) {
	if action, ok := moderation[in.Event]; ok {
		var data proto.EntityIDData
		if err := decode(in, &data); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return svc.Moderate(ctx, roomID, core.EntityID(data.ID), action)
		}, nil
	}

	switch in.Event {
	case proto.InboundRoomUpdateTitle:
		var data proto.TitleUpdate
		if err := decode(in, &data); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return svc.UpdateTitle(ctx, roomID, data.Title)
		}, nil
	case proto.InboundRoomUpdateState:
		var data proto.StateUpdate
		if err := decode(in, &data); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return svc.UpdateState(ctx, roomID, data.State)
		}, nil
	case proto.InboundRoomRegenPIN:
		return func(ctx context.Context) error {
			_, err := svc.RegeneratePIN(ctx, roomID)
			return err
		}, nil
	case proto.InboundRoomDispose:
		return func(ctx context.Context) error {
			return svc.DisposeRoom(ctx, roomID)
		}, nil
	default:
		return nil, unknownEvent(in)
	}
}

func attendeeCommand(svc *rooms.Service, a *core.Attendee, in proto.Inbound) (command, *proto.Error) {
	switch in.Event {
	case proto.InboundSelfHandUpdate:
		var data proto.HandData
		if err := decode(in, &data); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			return svc.RaiseHand(ctx, a, data.Raised)
		}, nil
	default:
		return nil, unknownEvent(in)
	}
}

func decode(in proto.Inbound, v any) *proto.Error {
	if len(in.Data) == 0 {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: in.Event + ": data is required"}
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: in.Event + ": " + err.Error()}
	}
	return nil
}

func unknownEvent(in proto.Inbound) *proto.Error {
	return &proto.Error{Code: errCodeUnknownEvent, Msg: "unknown event " + in.Event}
}

// commandError converts a failed command into the error frame sent back.
func commandError(err error) *proto.Error {
	if ge, ok := rooms.AsGuardError(err); ok {
		return &proto.Error{Code: ge.Code, Msg: ge.Message}
	}
	ce := core.AsCoreError(err)
	return &proto.Error{Code: ce.Code, Msg: ce.Message}
}
