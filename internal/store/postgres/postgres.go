// Package postgres is the PostgreSQL backend. The schema is managed by goose
// migrations embedded in the binary.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

// Migrations holds the goose migrations applied by Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of the embedded goose migrations.
const MigrationsDir = "migrations"

const uniqueViolation = "23505"

// Store implements store.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	q    *Queries
}

var _ store.Store = (*Store)(nil)

// Open connects to dbURL and applies pending migrations.
func Open(ctx context.Context, dbURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: could not connect to the postgresql database: %w", err)
	}

	if err := Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}

	return NewStore(pool), nil
}

// NewStore wraps an already migrated pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: New(pool)}
}

// Migrate runs goose up against pool. Running it again is a no-op.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("store/postgres: %w", err)
	}
	if err := goose.Up(db, MigrationsDir); err != nil {
		return fmt.Errorf("store/postgres: goose up: %w", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("store/postgres: %s: %w: %v", op, store.ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toModel(m Message) model.Message {
	return model.Message{
		MsgID:          m.ID,
		Content:        m.Content,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.AuthorUsername,
		Timestamp:      m.CreatedAt.Time.UTC(),
		RoomCode:       m.RoomCode,
		ReplyingTo:     m.ReplyingTo,
	}
}

func toModelUser(u User) model.User {
	return model.User{
		UserID:       u.UserID,
		Username:     u.Username,
		PasswordHash: u.HashedPassword,
		Role:         model.Role(u.UserType),
	}
}

func (s *Store) AddMessage(ctx context.Context, m model.Message) error {
	err := s.q.CreateMessage(ctx, CreateMessageParams{
		ID:             m.MsgID,
		Content:        m.Content,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.AuthorUsername,
		CreatedAt: pgtype.Timestamptz{
			Time:             m.Timestamp.UTC(),
			InfinityModifier: 0,
			Valid:            true,
		},
		RoomCode:   model.NormalizeRoom(m.RoomCode),
		ReplyingTo: m.ReplyingTo,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store/postgres: add message %d: %w", m.MsgID, store.ErrDuplicateID)
		}
		return unavailable("add message", err)
	}
	return nil
}

func (s *Store) AllMessages(ctx context.Context) ([]model.Message, error) {
	rows, err := s.q.ListMessages(ctx)
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	return convert(rows), nil
}

func (s *Store) RoomMessages(ctx context.Context, code string) ([]model.Message, error) {
	rows, err := s.q.ListRoomMessages(ctx, code)
	if err != nil {
		return nil, unavailable("list room messages", err)
	}
	return convert(rows), nil
}

func convert(rows []Message) []model.Message {
	msgs := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, toModel(r))
	}
	return msgs
}

func (s *Store) GetMessage(ctx context.Context, id int64) (model.Message, error) {
	row, err := s.q.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, fmt.Errorf("store/postgres: message %d: %w", id, store.ErrNotFound)
		}
		return model.Message{}, unavailable("get message", err)
	}
	return toModel(row), nil
}

func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	if err := s.q.DeleteMessage(ctx, id); err != nil {
		return unavailable("delete message", err)
	}
	return nil
}

func (s *Store) DeleteAllMessages(ctx context.Context) error {
	if err := s.q.DeleteAllMessages(ctx); err != nil {
		return unavailable("delete all messages", err)
	}
	return nil
}

func (s *Store) EditMessage(ctx context.Context, id int64, content string) error {
	if err := s.q.UpdateMessageContent(ctx, id, content); err != nil {
		return unavailable("edit message", err)
	}
	return nil
}

func (s *Store) AddUser(ctx context.Context, u model.User) error {
	err := s.q.CreateUser(ctx, CreateUserParams{
		UserID:         u.UserID,
		Username:       u.Username,
		HashedPassword: u.PasswordHash,
		UserType:       int16(u.Role),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store/postgres: add user %q: %w", u.Username, store.ErrDuplicateUser)
		}
		return unavailable("add user", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	u, err := s.q.GetUserById(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("store/postgres: user %d: %w", id, store.ErrNotFound)
		}
		return model.User{}, unavailable("get user", err)
	}
	return toModelUser(u), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := s.q.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("store/postgres: user %q: %w", username, store.ErrNotFound)
		}
		return model.User{}, unavailable("get user", err)
	}
	return toModelUser(u), nil
}

func (s *Store) GetAllUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.q.ListUsers(ctx)
	if err != nil {
		return nil, unavailable("list users", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, toModelUser(r))
	}
	return users, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	n, err := s.q.UpdateUserPassword(ctx, id, hash)
	if err != nil {
		return unavailable("update password", err)
	}
	if n == 0 {
		return fmt.Errorf("store/postgres: user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
