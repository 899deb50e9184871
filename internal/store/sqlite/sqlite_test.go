package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/clubroom-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewWithSetup(":memory:", Migrate)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, "  Ada@Example.org ", "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if acc.AccountID == "" {
		t.Fatal("expected generated account id")
	}
	if acc.Email != "ada@example.org" {
		t.Errorf("expected normalized email, got %q", acc.Email)
	}

	byPublic, err := s.GetAccountByAccountID(ctx, acc.AccountID)
	if err != nil {
		t.Fatalf("GetAccountByAccountID failed: %v", err)
	}
	if byPublic.ID != acc.ID || byPublic.FirstName != "Ada" {
		t.Errorf("unexpected account: %+v", byPublic)
	}

	byEmail, err := s.GetAccountByEmail(ctx, "ADA@example.org")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if byEmail.ID != acc.ID {
		t.Errorf("expected id %d, got %d", acc.ID, byEmail.ID)
	}

	if _, err := s.CreateAccount(ctx, "ada@example.org", "Other", "Person"); err == nil {
		t.Error("expected duplicate email to fail")
	}

	if _, err := s.GetAccountByID(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	presenter, err := s.CreateAccount(ctx, "host@example.org", "Grace", "Hopper")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	room, err := s.CreateRoom(ctx, "Compilers 101", presenter.ID)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.RoomID == "" || room.ID == 0 {
		t.Fatalf("expected generated ids, got %+v", room)
	}
	if room.EndedAt != nil {
		t.Error("new room should not be ended")
	}

	if err := s.UpdateRoomTitle(ctx, room.RoomID, "Compilers 102"); err != nil {
		t.Fatalf("UpdateRoomTitle failed: %v", err)
	}

	ended := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if err := s.EndRoom(ctx, room.RoomID, ended); err != nil {
		t.Fatalf("EndRoom failed: %v", err)
	}
	if err := s.EndRoom(ctx, room.RoomID, ended.Add(time.Hour)); err != nil {
		t.Fatalf("second EndRoom failed: %v", err)
	}

	got, err := s.GetRoomByRoomID(ctx, room.RoomID)
	if err != nil {
		t.Fatalf("GetRoomByRoomID failed: %v", err)
	}
	if got.Title != "Compilers 102" {
		t.Errorf("expected updated title, got %q", got.Title)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("expected ended_at %v, got %v", ended, got.EndedAt)
	}

	if err := s.UpdateRoomTitle(ctx, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRoomByRoomID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRoomRequiresPresenter(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateRoom(context.Background(), "orphan", 42); err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestListRoomsByPresenter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateAccount(ctx, "a@example.org", "A", "A")
	b, _ := s.CreateAccount(ctx, "b@example.org", "B", "B")

	for _, title := range []string{"first", "second"} {
		if _, err := s.CreateRoom(ctx, title, a.ID); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
	}
	if _, err := s.CreateRoom(ctx, "other", b.ID); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	rooms, err := s.ListRoomsByPresenter(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListRoomsByPresenter failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Title != "second" || rooms[1].Title != "first" {
		t.Errorf("expected newest first, got %q, %q", rooms[0].Title, rooms[1].Title)
	}
}
