// Package redisstore is the key-value backend. Messages are JSON values indexed
// by per-room and global sorted sets scored by timestamp.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "chat:"

type messageRecord struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Timestamp      time.Time `json:"timestamp"`
	RoomCode       string    `json:"room_code"`
	ReplyingTo     int64     `json:"replying_to"`
}

type userRecord struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	UserType     int    `json:"user_type"`
}

// Store implements store.Store on Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// New wraps client. An empty prefix uses DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, opts *redis.Options, prefix string) (*Store, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store/redis: connect %s: %w: %v", opts.Addr, store.ErrUnavailable, err)
	}
	return New(client, prefix), nil
}

func (s *Store) msgKey(id int64) string { return s.prefix + "msg:" + strconv.FormatInt(id, 10) }
func (s *Store) roomKey(code string) string { return s.prefix + "room:" + code }
func (s *Store) allKey() string { return s.prefix + "messages" }
func (s *Store) userKey(id int64) string { return s.prefix + "user:" + strconv.FormatInt(id, 10) }
func (s *Store) usernamesKey() string { return s.prefix + "usernames" }

func unavailable(op string, err error) error {
	return fmt.Errorf("store/redis: %s: %w: %v", op, store.ErrUnavailable, err)
}

func score(t time.Time) float64 {
	// Microseconds stay exact in a float64 mantissa.
	return float64(t.UnixMicro())
}

func (r messageRecord) message() model.Message {
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

func (r userRecord) user() model.User {
	return model.User{
		UserID:       r.UserID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.UserType),
	}
}

func (s *Store) AddMessage(ctx context.Context, m model.Message) error {
	rec := messageRecord{
		ID:             m.MsgID,
		Content:        m.Content,
		AuthorID:       m.AuthorID,
		AuthorUsername: m.AuthorUsername,
		Timestamp:      m.Timestamp.UTC(),
		RoomCode:       model.NormalizeRoom(m.RoomCode),
		ReplyingTo:     m.ReplyingTo,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store/redis: encode message: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.msgKey(rec.ID), data, 0).Result()
	if err != nil {
		return unavailable("add message", err)
	}
	if !ok {
		return fmt.Errorf("store/redis: add message %d: %w", rec.ID, store.ErrDuplicateID)
	}

	member := redis.Z{Score: score(rec.Timestamp), Member: rec.ID}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.allKey(), member)
		pipe.ZAdd(ctx, s.roomKey(rec.RoomCode), member)
		return nil
	})
	if err != nil {
		return unavailable("index message", err)
	}
	return nil
}

func (s *Store) AllMessages(ctx context.Context) ([]model.Message, error) {
	return s.listMessages(ctx, s.allKey())
}

func (s *Store) RoomMessages(ctx context.Context, code string) ([]model.Message, error) {
	return s.listMessages(ctx, s.roomKey(code))
}

func (s *Store) listMessages(ctx context.Context, index string) ([]model.Message, error) {
	ids, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	if len(ids) == 0 {
		return []model.Message{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.prefix+"msg:"+id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("load messages", err)
	}

	msgs := make([]model.Message, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry outlived its value.
			continue
		}
		var rec messageRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("store/redis: decode message: %w", err)
		}
		msgs = append(msgs, rec.message())
	}

	store.SortByTimestamp(msgs)
	return msgs, nil
}

func (s *Store) getRecord(ctx context.Context, id int64) (messageRecord, error) {
	raw, err := s.client.Get(ctx, s.msgKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return messageRecord{}, fmt.Errorf("store/redis: message %d: %w", id, store.ErrNotFound)
		}
		return messageRecord{}, unavailable("get message", err)
	}

	var rec messageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return messageRecord{}, fmt.Errorf("store/redis: decode message: %w", err)
	}
	return rec, nil
}

func (s *Store) GetMessage(ctx context.Context, id int64) (model.Message, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return model.Message{}, err
	}
	return rec.message(), nil
}

func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.msgKey(id))
		pipe.ZRem(ctx, s.allKey(), rec.ID)
		pipe.ZRem(ctx, s.roomKey(rec.RoomCode), rec.ID)
		return nil
	})
	if err != nil {
		return unavailable("delete message", err)
	}
	return nil
}

func (s *Store) DeleteAllMessages(ctx context.Context) error {
	for _, pattern := range []string{s.prefix + "msg:*", s.prefix + "room:*"} {
		if err := s.deletePattern(ctx, pattern); err != nil {
			return err
		}
	}
	if err := s.client.Del(ctx, s.allKey()).Err(); err != nil {
		return unavailable("delete all messages", err)
	}
	return nil
}

func (s *Store) deletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return unavailable("scan", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return unavailable("delete", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *Store) EditMessage(ctx context.Context, id int64, content string) error {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	rec.Content = content
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store/redis: encode message: %w", err)
	}

	// SetXX so a concurrent delete is not undone.
	if err := s.client.SetXX(ctx, s.msgKey(id), data, redis.KeepTTL).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return unavailable("edit message", err)
	}
	return nil
}

func (s *Store) AddUser(ctx context.Context, u model.User) error {
	data, err := json.Marshal(userRecord{
		UserID:       u.UserID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		UserType:     int(u.Role),
	})
	if err != nil {
		return fmt.Errorf("store/redis: encode user: %w", err)
	}

	claimed, err := s.client.HSetNX(ctx, s.usernamesKey(), u.Username, u.UserID).Result()
	if err != nil {
		return unavailable("add user", err)
	}
	if !claimed {
		return fmt.Errorf("store/redis: add user %q: %w", u.Username, store.ErrDuplicateUser)
	}

	ok, err := s.client.SetNX(ctx, s.userKey(u.UserID), data, 0).Result()
	if err != nil || !ok {
		s.client.HDel(ctx, s.usernamesKey(), u.Username)
		if err != nil {
			return unavailable("add user", err)
		}
		return fmt.Errorf("store/redis: add user id %d: %w", u.UserID, store.ErrDuplicateUser)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	raw, err := s.client.Get(ctx, s.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, fmt.Errorf("store/redis: user %d: %w", id, store.ErrNotFound)
		}
		return model.User{}, unavailable("get user", err)
	}

	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.User{}, fmt.Errorf("store/redis: decode user: %w", err)
	}
	return rec.user(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	id, err := s.client.HGet(ctx, s.usernamesKey(), username).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, fmt.Errorf("store/redis: user %q: %w", username, store.ErrNotFound)
		}
		return model.User{}, unavailable("get user", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetAllUsers(ctx context.Context) ([]model.User, error) {
	byName, err := s.client.HGetAll(ctx, s.usernamesKey()).Result()
	if err != nil {
		return nil, unavailable("list users", err)
	}

	users := make([]model.User, 0, len(byName))
	for _, rawID := range byName {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		u, err := s.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}

	slices.SortFunc(users, func(a, b model.User) int {
		switch {
		case a.Username < b.Username:
			return -1
		case a.Username > b.Username:
			return 1
		}
		return 0
	})
	return users, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	data, err := json.Marshal(userRecord{
		UserID:       u.UserID,
		Username:     u.Username,
		PasswordHash: hash,
		UserType:     int(u.Role),
	})
	if err != nil {
		return fmt.Errorf("store/redis: encode user: %w", err)
	}
	if err := s.client.Set(ctx, s.userKey(id), data, 0).Err(); err != nil {
		return unavailable("update password", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
