package core

// CloseCode is the status a connection is closed with.
// Values follow the WebSocket close codes.
type CloseCode int

const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	ClosePolicyViolation CloseCode = 1008
)

// Connection is the transport behind an entity.
// The owner of the transport reports its closure by disposing the entity.
type Connection interface {
	Send(payload []byte) error
	Close(code CloseCode, reason string) error
}

// User is the identity a room participant connects with.
type User struct {
	AccountID string
	FirstName string
	LastName  string
	NumericID int64
}

// Scheduler runs fn after the current unit of work has finished.
type Scheduler interface {
	Defer(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Defer calls f(fn).
func (f SchedulerFunc) Defer(fn func()) { f(fn) }

// ImmediateScheduler runs deferred work right away.
var ImmediateScheduler Scheduler = SchedulerFunc(func(fn func()) { fn() })
