// Package sqlite is the embedded SQL backend, built on gorm and the pure Go
// SQLite driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

type messageRow struct {
	ID             int64     `gorm:"primaryKey;autoIncrement:false"`
	Content        string    `gorm:"not null"`
	AuthorID       int64     `gorm:"not null"`
	AuthorUsername string    `gorm:"not null"`
	Timestamp      time.Time `gorm:"not null;index"`
	RoomCode       string    `gorm:"not null;default:GLOBAL;index"`
	ReplyingTo     int64     `gorm:"not null;default:0"`
}

func (messageRow) TableName() string { return "messages" }

type userRow struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Username     string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	UserType     int    `gorm:"not null;default:0"`
}

func (userRow) TableName() string { return "users" }

// Store implements store.Store on SQLite.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and migrates the schema.
// Migration is idempotent, so reopening an existing file never fails on
// the schema. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	memory := path == ":memory:"
	if !memory {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, fmt.Errorf("store/sqlite: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store/sqlite: open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store/sqlite: %w", err)
	}

	// Each connection to :memory: is its own database.
	if memory {
		sqlDB.SetMaxOpenConns(1)
	} else {
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}
	db.Exec("PRAGMA busy_timeout=5000;")

	if err := db.AutoMigrate(&messageRow{}, &userRow{}); err != nil {
		return nil, fmt.Errorf("store/sqlite: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("store/sqlite: %s: %w: %v", op, store.ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func toRow(m model.Message) messageRow {
	return messageRow{
		ID:             m.MsgID,
		Content:        m.Content,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.AuthorUsername,
		Timestamp:      m.Timestamp.UTC(),
		RoomCode:       model.NormalizeRoom(m.RoomCode),
		ReplyingTo:     m.ReplyingTo,
	}
}

func (r messageRow) message() model.Message {
	return model.Message{
		MsgID:          r.ID,
		Content:        r.Content,
		AuthorID:       r.AuthorID,
		AuthorUsername: r.AuthorUsername,
		Timestamp:      r.Timestamp.UTC(),
		RoomCode:       r.RoomCode,
		ReplyingTo:     r.ReplyingTo,
	}
}

func (r userRow) user() model.User {
	return model.User{
		UserID:       r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.UserType),
	}
}

func (s *Store) AddMessage(ctx context.Context, m model.Message) error {
	row := toRow(m)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store/sqlite: add message %d: %w", m.MsgID, store.ErrDuplicateID)
		}
		return unavailable("add message", err)
	}
	return nil
}

func (s *Store) AllMessages(ctx context.Context) ([]model.Message, error) {
	return listMessages(s.db.WithContext(ctx))
}

func (s *Store) RoomMessages(ctx context.Context, code string) ([]model.Message, error) {
	return listMessages(s.db.WithContext(ctx).Where("room_code = ?", code))
}

func listMessages(q *gorm.DB) ([]model.Message, error) {
	var rows []messageRow
	if err := q.Order("timestamp ASC").Find(&rows).Error; err != nil {
		return nil, unavailable("list messages", err)
	}

	msgs := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.message())
	}
	return msgs, nil
}

func (s *Store) GetMessage(ctx context.Context, id int64) (model.Message, error) {
	var row messageRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Message{}, fmt.Errorf("store/sqlite: message %d: %w", id, store.ErrNotFound)
		}
		return model.Message{}, unavailable("get message", err)
	}
	return row.message(), nil
}

func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&messageRow{}, "id = ?", id).Error; err != nil {
		return unavailable("delete message", err)
	}
	return nil
}

func (s *Store) DeleteAllMessages(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&messageRow{}).Error; err != nil {
		return unavailable("delete all messages", err)
	}
	return nil
}

func (s *Store) EditMessage(ctx context.Context, id int64, content string) error {
	err := s.db.WithContext(ctx).Model(&messageRow{}).
		Where("id = ?", id).
		Update("content", content).Error
	if err != nil {
		return unavailable("edit message", err)
	}
	return nil
}

func (s *Store) AddUser(ctx context.Context, u model.User) error {
	row := userRow{
		ID:           u.UserID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		UserType:     int(u.Role),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("store/sqlite: add user %q: %w", u.Username, store.ErrDuplicateUser)
		}
		return unavailable("add user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store/sqlite: add user %q: %w", u.Username, store.ErrDuplicateUser)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, fmt.Errorf("store/sqlite: user %v: %w", arg, store.ErrNotFound)
		}
		return model.User{}, unavailable("get user", err)
	}
	return row.user(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Store) GetAllUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, unavailable("list users", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return unavailable("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store/sqlite: user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
