package rooms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/proto"
	"github.com/vovakirdan/clubroom-server/internal/store"
	"github.com/vovakirdan/clubroom-server/internal/utils"
)

const (
	maxPINAttempts = 32
	maxTitleLength = 120
)

// Info is a read-only view of a live room.
type Info struct {
	ID                 int64          `json:"-"`
	RoomID             string         `json:"room_id"`
	PIN                string         `json:"pin,omitempty"`
	Title              string         `json:"title"`
	State              core.RoomState `json:"state"`
	PresenterAccountID string         `json:"presenter_account_id"`
	PresenterConnected bool           `json:"presenter_connected"`
	Attendees          int            `json:"attendees"`
	Displays           int            `json:"displays"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Action is a moderation command a presenter applies to an attendee.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionKick    Action = "kick"
	ActionBan     Action = "ban"
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPINGenerator overrides the PIN source.
func WithPINGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newPIN = gen }
}

// Service is the directory of live rooms. Both indexes are owned by the hub
// goroutine; every public method submits a hub task.
type Service struct {
	hub    *core.Hub
	store  store.RoomStore
	log    *zerolog.Logger
	now    func() time.Time
	newPIN func() (string, error)

	byRoomID map[string]*core.Room
	byPIN    map[string]*core.Room
	ended    map[string]struct{}
}

// New creates a room service on top of a running hub.
func New(hub *core.Hub, st store.RoomStore, logger *zerolog.Logger, opts ...Option) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Service{
		hub:      hub,
		store:    st,
		log:      logger,
		now:      time.Now,
		newPIN:   utils.NewPIN,
		byRoomID: make(map[string]*core.Room),
		byPIN:    make(map[string]*core.Room),
		ended:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom persists a room for presenter and registers it under a fresh PIN.
func (s *Service) CreateRoom(ctx context.Context, presenter core.User, title string) (Info, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return Info{}, err
	}

	rec, err := s.store.CreateRoom(ctx, title, presenter.NumericID)
	if err != nil {
		return Info{}, fmt.Errorf("create room: %w", err)
	}

	var info Info
	err = s.hub.Do(ctx, func() error {
		pin, err := s.uniquePIN()
		if err != nil {
			return err
		}
		room := core.NewRoom(core.RoomInfo{
			ID:        rec.ID,
			RoomID:    rec.RoomID,
			PIN:       pin,
			Title:     rec.Title,
			Presenter: presenter,
			CreatedAt: s.now(),
		},
			core.WithScheduler(s.hub),
			core.WithLogger(s.log),
			core.WithClock(s.now),
		)
		s.byRoomID[room.RoomID()] = room
		s.byPIN[pin] = room
		info = describe(room)
		return nil
	})
	if err != nil {
		return Info{}, err
	}

	s.log.Info().
		Str("room_id", info.RoomID).
		Str("pin", info.PIN).
		Str("account_id", presenter.AccountID).
		Msg("room created")
	return info, nil
}

// Room returns the live room with the given id.
func (s *Service) Room(ctx context.Context, roomID string) (Info, error) {
	var info Info
	err := s.withRoom(ctx, roomID, func(room *core.Room) error {
		info = describe(room)
		return nil
	})
	return info, err
}

// LookupPIN resolves a PIN to its live room. Input is case-insensitive.
func (s *Service) LookupPIN(ctx context.Context, pin string) (Info, error) {
	pin = strings.ToUpper(strings.TrimSpace(pin))
	notFound := guardError(http.StatusNotFound, CodePINNotFound, "no room with pin %s", pin)
	if !utils.ValidPIN(pin) {
		return Info{}, notFound
	}

	var info Info
	err := s.hub.Do(ctx, func() error {
		room, ok := s.byPIN[pin]
		if !ok {
			return notFound
		}
		info = describe(room)
		info.PIN = ""
		return nil
	})
	return info, err
}

// AuthorizePresenter fails unless user is the presenter of a live room.
func (s *Service) AuthorizePresenter(ctx context.Context, roomID string, user core.User) error {
	return s.withRoom(ctx, roomID, func(room *core.Room) error {
		return guardPresenter(room, user)
	})
}

// AttachPresenter connects the room's presenter.
func (s *Service) AttachPresenter(ctx context.Context, roomID string, user core.User, conn core.Connection) (*core.Presenter, error) {
	var p *core.Presenter
	err := s.withRoom(ctx, roomID, func(room *core.Room) error {
		if err := guardPresenterAttach(room, user); err != nil {
			return err
		}
		var err error
		if p, err = room.AddPresenter(conn); err != nil {
			return err
		}
		s.sendSnapshot(room, p)
		return nil
	})
	return p, err
}

// AttachAttendee connects an audience member.
func (s *Service) AttachAttendee(ctx context.Context, roomID string, user core.User, conn core.Connection) (*core.Attendee, error) {
	var a *core.Attendee
	err := s.withRoom(ctx, roomID, func(room *core.Room) error {
		if err := guardAttendeeAttach(room, user); err != nil {
			return err
		}
		var err error
		if a, err = room.AddAttendee(conn, user); err != nil {
			return err
		}
		s.sendSnapshot(room, a)
		return nil
	})
	return a, err
}

// AttachDisplay connects a display opened by the presenter's account.
func (s *Service) AttachDisplay(ctx context.Context, roomID string, user core.User, conn core.Connection) (*core.Display, error) {
	var d *core.Display
	err := s.withRoom(ctx, roomID, func(room *core.Room) error {
		if err := guardPresenter(room, user); err != nil {
			return err
		}
		var err error
		if d, err = room.AddDisplay(conn); err != nil {
			return err
		}
		s.sendSnapshot(room, d)
		return nil
	})
	return d, err
}

// Detach disposes the entity after its connection closed.
func (s *Service) Detach(ctx context.Context, e core.Entity) error {
	return s.hub.Do(ctx, func() error {
		if err := e.Dispose(); err != nil && !errors.Is(err, core.ErrEntityDisposed) {
			return err
		}
		return nil
	})
}

// Exec runs fn on the hub.
func (s *Service) Exec(ctx context.Context, fn func() error) error {
	return s.hub.Do(ctx, fn)
}

// Moderate applies a presenter command to the attendee with the given id.
func (s *Service) Moderate(ctx context.Context, roomID string, id core.EntityID, action Action) error {
	return s.withRoom(ctx, roomID, func(room *core.Room) error {
		a, ok := room.Attendee(id)
		if !ok {
			return fmt.Errorf("%w: %d", core.ErrAttendeeNotFound, id)
		}
		switch action {
		case ActionApprove:
			return a.Approve()
		case ActionReject:
			return a.Reject()
		case ActionKick:
			return a.Kick()
		case ActionBan:
			return a.Ban()
		default:
			return core.BadRequest("unknown action %q", action)
		}
	})
}

// RaiseHand updates an attendee's hand.
func (s *Service) RaiseHand(ctx context.Context, a *core.Attendee, raised bool) error {
	return s.hub.Do(ctx, func() error {
		return a.UpdateHand(raised)
	})
}

// RegeneratePIN replaces the room's PIN and re-indexes it.
func (s *Service) RegeneratePIN(ctx context.Context, roomID string) (string, error) {
	var pin string
	err := s.withRoom(ctx, roomID, func(room *core.Room) error {
		if err := guardLive(room); err != nil {
			return err
		}
		var err error
		if pin, err = s.uniquePIN(); err != nil {
			return err
		}
		delete(s.byPIN, room.PIN())
		s.byPIN[pin] = room
		return room.UpdatePIN(pin)
	})
	if err != nil {
		return "", err
	}
	s.log.Info().Str("room_id", roomID).Str("pin", pin).Msg("pin regenerated")
	return pin, nil
}

// UpdateTitle renames the room and stores the new title.
// The live rename stands even when the store write fails; the failure is logged.
func (s *Service) UpdateTitle(ctx context.Context, roomID, title string) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	err = s.withRoom(ctx, roomID, func(room *core.Room) error {
		return room.UpdateTitle(title)
	})
	if err != nil {
		return err
	}
	if err := s.store.UpdateRoomTitle(ctx, roomID, title); err != nil {
		s.log.Error().Err(err).Str("room_id", roomID).Msg("store room title")
	}
	return nil
}

// UpdateState switches the room between locked, unlocked and permissive.
func (s *Service) UpdateState(ctx context.Context, roomID, state string) error {
	st, err := core.ParseRoomState(state)
	if err != nil {
		return err
	}
	return s.withRoom(ctx, roomID, func(room *core.Room) error {
		return room.UpdateState(st)
	})
}

// DisposeRoom ends the room and removes it from the directory.
func (s *Service) DisposeRoom(ctx context.Context, roomID string) error {
	err := s.withRoom(ctx, roomID, func(room *core.Room) error {
		return s.dispose(room)
	})
	if err != nil {
		return err
	}
	s.markEnded(ctx, roomID)
	return nil
}

// FindAllLive returns every registered room ordered by creation.
// It must be called from a hub task.
func (s *Service) FindAllLive() []*core.Room {
	out := make([]*core.Room, 0, len(s.byRoomID))
	for _, room := range s.byRoomID {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// SweepExpired disposes every room the policy considers expired at now.
func (s *Service) SweepExpired(ctx context.Context, now time.Time, policy ExpiryPolicy) ([]string, error) {
	var swept []string
	err := s.hub.Do(ctx, func() error {
		for _, room := range s.FindAllLive() {
			if !policy.Expired(room, now) {
				continue
			}
			if err := s.dispose(room); err != nil {
				s.log.Warn().Err(err).Str("room_id", room.RoomID()).Msg("sweep dispose failed")
				continue
			}
			swept = append(swept, room.RoomID())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, roomID := range swept {
		s.markEnded(ctx, roomID)
	}
	return swept, nil
}

// Shutdown disposes every live room.
func (s *Service) Shutdown(ctx context.Context) error {
	var ended []string
	err := s.hub.Do(ctx, func() error {
		for _, room := range s.FindAllLive() {
			if err := s.dispose(room); err != nil {
				s.log.Warn().Err(err).Str("room_id", room.RoomID()).Msg("shutdown dispose failed")
				continue
			}
			ended = append(ended, room.RoomID())
		}
		return nil
	})
	for _, roomID := range ended {
		s.markEnded(ctx, roomID)
	}
	s.log.Info().Int("rooms", len(ended)).Msg("room service stopped")
	return err
}

// withRoom runs fn on the hub with the registered room. Rooms ended by this
// process, or recorded as ended in the store, report a conflict.
func (s *Service) withRoom(ctx context.Context, roomID string, fn func(room *core.Room) error) error {
	missing := false
	err := s.hub.Do(ctx, func() error {
		room, ok := s.byRoomID[roomID]
		if !ok {
			if _, ended := s.ended[roomID]; ended {
				return errRoomDisposed(roomID)
			}
			missing = true
			return nil
		}
		return fn(room)
	})
	if err != nil || !missing {
		return err
	}

	rec, err := s.store.GetRoomByRoomID(ctx, roomID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errRoomNotFound(roomID)
	case err != nil:
		return fmt.Errorf("lookup room: %w", err)
	case rec.EndedAt != nil:
		return errRoomDisposed(roomID)
	default:
		// Persisted but not live, e.g. created before a restart.
		return errRoomNotFound(roomID)
	}
}

// dispose must run on the hub.
func (s *Service) dispose(room *core.Room) error {
	if err := room.Dispose(); err != nil {
		return err
	}
	delete(s.byRoomID, room.RoomID())
	s.ended[room.RoomID()] = struct{}{}
	if s.byPIN[room.PIN()] == room {
		delete(s.byPIN, room.PIN())
	}
	return nil
}

func (s *Service) markEnded(ctx context.Context, roomID string) {
	if err := s.store.EndRoom(ctx, roomID, s.now()); err != nil {
		s.log.Error().Err(err).Str("room_id", roomID).Msg("failed to record room end")
	}
}

// uniquePIN must run on the hub.
func (s *Service) uniquePIN() (string, error) {
	for attempt := 0; attempt < maxPINAttempts; attempt++ {
		pin, err := s.newPIN()
		if err != nil {
			return "", fmt.Errorf("generate pin: %w", err)
		}
		if _, taken := s.byPIN[pin]; !taken {
			return pin, nil
		}
	}
	return "", ErrPINExhausted
}

func (s *Service) sendSnapshot(room *core.Room, e core.Entity) {
	if err := e.Dispatch(proto.EventRoomSnapshot, room.Snapshot(e)); err != nil {
		s.log.Debug().Err(err).
			Str("room_id", room.RoomID()).
			Str("kind", string(e.Kind())).
			Int("entity_id", int(e.ID())).
			Msg("snapshot not delivered")
	}
}

func describe(room *core.Room) Info {
	return Info{
		ID:                 room.ID(),
		RoomID:             room.RoomID(),
		PIN:                room.PIN(),
		Title:              room.Title(),
		State:              room.State(),
		PresenterAccountID: room.Owner().AccountID,
		PresenterConnected: room.HasPresenter(),
		Attendees:          len(room.Attendees()),
		Displays:           len(room.Displays()),
		CreatedAt:          room.CreatedAt(),
	}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) > maxTitleLength {
		return "", core.BadRequest("title longer than %d characters", maxTitleLength)
	}
	return title, nil
}
