package proto

import "encoding/json"

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Outbound events broadcast by a room to every connected party.
const (
	EventRoomPINUpdate   = "room.pinUpdate"
	EventRoomStateUpdate = "room.stateUpdate"
	EventRoomTitleUpdate = "room.titleUpdate"
	EventRoomSnapshot    = "room.snapshot"
)

// Outbound events projected for the presenter.
const (
	EventAttendeeAdded       = "room.attendeeAdded"
	EventAttendeeDisposed    = "room.attendeeDisposed"
	EventAttendeeApproved    = "room.attendeeApproved"
	EventAttendeeBanned      = "room.attendeeBanned"
	EventDisplayAdded        = "room.displayAdded"
	EventDisplayDisposed     = "room.displayDisposed"
	EventAttendeeStateUpdate = "attendeeUser.stateUpdate"
	EventAttendeeHandUpdate  = "attendeeUser.handUpdate"
	EventDisplayStateUpdate  = "displayEntity.stateUpdate"
)

// Outbound events addressed to a single entity about itself.
const (
	EventSelfStateUpdate = "self.stateUpdate"
	EventSelfBanned      = "self.banned"
	EventSelfKicked      = "self.kicked"
	EventSelfRejected    = "self.rejected"

	EventError = "error"
)

// Inbound events.
const (
	InboundAttendeeApprove = "attendee.approve"
	InboundAttendeeReject  = "attendee.reject"
	InboundAttendeeKick    = "attendee.kick"
	InboundAttendeeBan     = "attendee.ban"
	InboundRoomUpdateTitle = "room.updateTitle"
	InboundRoomUpdateState = "room.updateState"
	InboundRoomRegenPIN    = "room.regeneratePIN"
	InboundRoomDispose     = "room.dispose"
	InboundSelfHandUpdate  = "self.handUpdate"
)

// PINUpdate carries a new room PIN.
type PINUpdate struct {
	PIN string `json:"pin"`
}

// StateUpdate carries a new state value for a room or for the receiving entity.
type StateUpdate struct {
	State string `json:"state"`
}

// TitleUpdate carries a new room title.
type TitleUpdate struct {
	Title string `json:"title"`
}

// Attendee describes an attendee for the presenter's moderation view.
type Attendee struct {
	ID        int    `json:"id"`
	AccountID string `json:"accountID"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	State     string `json:"state"`
}

// Display describes a display client for the presenter.
type Display struct {
	ID    int    `json:"id"`
	State string `json:"state"`
}

// EntityRef identifies a disposed entity.
type EntityRef struct {
	ID int `json:"id"`
}

// EntityStateUpdate reports a state transition of another entity.
type EntityStateUpdate struct {
	ID    int    `json:"id"`
	State string `json:"state"`
}

// HandUpdate reports an attendee raising or lowering their hand.
type HandUpdate struct {
	ID     int  `json:"id"`
	Raised bool `json:"raised"`
}

// Account identifies an account in approval and ban lists.
type Account struct {
	AccountID string `json:"accountID"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Snapshot is sent once to every entity right after it attaches.
// Presenter-only fields are left empty for other kinds.
type Snapshot struct {
	RoomID    string     `json:"roomID"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	PIN       string     `json:"pin,omitempty"`
	Self      *Self      `json:"self,omitempty"`
	Attendees []Attendee `json:"attendees,omitempty"`
	Displays  []Display  `json:"displays,omitempty"`
	Approved  []string   `json:"approved,omitempty"`
	Banned    []string   `json:"banned,omitempty"`
}

// Self describes the receiving entity inside a snapshot.
type Self struct {
	ID    int    `json:"id"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// EntityIDData addresses an attendee in a moderation command.
type EntityIDData struct {
	ID int `json:"id"`
}

// HandData is sent by an attendee raising or lowering their hand.
type HandData struct {
	Raised bool `json:"raised"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
