package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/clubroom-server/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup opens the database and runs setup before the first query.
// Tests pass Migrate with ":memory:".
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the embedded schema. It is idempotent.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== AccountStore implementation ====

// CreateAccount inserts an account with a random public id.
func (s *SQLiteStore) CreateAccount(ctx context.Context, email, firstName, lastName string) (*store.Account, error) {
	query := `
		INSERT INTO accounts (account_id, email, first_name, last_name)
		VALUES (?, ?, ?, ?)
	`
	email = strings.ToLower(strings.TrimSpace(email))
	result, err := s.db.ExecContext(ctx, query, uuid.NewString(), email, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetAccountByID(ctx, id)
}

const accountColumns = `id, account_id, email, first_name, last_name, created_at`

// GetAccountByID retrieves an account by numeric id.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, id int64) (*store.Account, error) {
	return s.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

// GetAccountByAccountID retrieves an account by public id.
func (s *SQLiteStore) GetAccountByAccountID(ctx context.Context, accountID string) (*store.Account, error) {
	return s.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, accountID)
}

// GetAccountByEmail retrieves an account by email, case-insensitively.
func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*store.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

func (s *SQLiteStore) queryAccount(ctx context.Context, query string, arg any) (*store.Account, error) {
	var acc store.Account
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&acc.ID,
		&acc.AccountID,
		&acc.Email,
		&acc.FirstName,
		&acc.LastName,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &acc, nil
}

// ==== RoomStore implementation ====

// CreateRoom persists a presentation room under a new uuid room id.
func (s *SQLiteStore) CreateRoom(ctx context.Context, title string, presenterUserID int64) (*store.Room, error) {
	query := `
		INSERT INTO presentation_rooms (room_id, title, presenter_user_id)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, uuid.NewString(), title, presenterUserID)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.queryRoom(ctx, `SELECT `+roomColumns+` FROM presentation_rooms WHERE id = ?`, id)
}

const roomColumns = `id, room_id, title, presenter_user_id, created_at, ended_at`

// GetRoomByRoomID retrieves a room by its durable id.
func (s *SQLiteStore) GetRoomByRoomID(ctx context.Context, roomID string) (*store.Room, error) {
	return s.queryRoom(ctx, `SELECT `+roomColumns+` FROM presentation_rooms WHERE room_id = ?`, roomID)
}

// UpdateRoomTitle stores a new title.
func (s *SQLiteStore) UpdateRoomTitle(ctx context.Context, roomID, title string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE presentation_rooms SET title = ? WHERE room_id = ?`, title, roomID)
	if err != nil {
		return fmt.Errorf("update room title: %w", err)
	}
	return requireRow(result, roomID)
}

// EndRoom records the disposal time. Ending an already ended room keeps the first timestamp.
func (s *SQLiteStore) EndRoom(ctx context.Context, roomID string, endedAt time.Time) error {
	query := `
		UPDATE presentation_rooms
		SET ended_at = COALESCE(ended_at, ?)
		WHERE room_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, endedAt.UTC(), roomID)
	if err != nil {
		return fmt.Errorf("end room: %w", err)
	}
	return requireRow(result, roomID)
}

// ListRoomsByPresenter lists a presenter's rooms, newest first.
func (s *SQLiteStore) ListRoomsByPresenter(ctx context.Context, presenterUserID int64) ([]*store.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM presentation_rooms
		WHERE presenter_user_id = ?
		ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, presenterUserID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*store.Room, error) {
	var room store.Room
	var endedAt sql.NullTime
	if err := row.Scan(
		&room.ID,
		&room.RoomID,
		&room.Title,
		&room.PresenterUserID,
		&room.CreatedAt,
		&endedAt,
	); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		room.EndedAt = &t
	}
	return &room, nil
}

func (s *SQLiteStore) queryRoom(ctx context.Context, query string, arg any) (*store.Room, error) {
	room, err := scanRoom(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return room, nil
}

func requireRow(result sql.Result, roomID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("room %s: %w", roomID, store.ErrNotFound)
	}
	return nil
}
