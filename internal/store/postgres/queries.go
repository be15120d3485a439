package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Message struct {
	ID             int64
	Content        string
	AuthorID       int64
	AuthorUsername string
	CreatedAt      pgtype.Timestamptz
	RoomCode       string
	ReplyingTo     int64
}

type User struct {
	UserID         int64
	Username       string
	HashedPassword string
	UserType       int16
}

const createMessage = `-- name: CreateMessage :exec
INSERT INTO messages (id, content, author_id, author_username, created_at, room_code, replying_to)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateMessageParams struct {
	ID             int64
	Content        string
	AuthorID       int64
	AuthorUsername string
	CreatedAt      pgtype.Timestamptz
	RoomCode       string
	ReplyingTo     int64
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) error {
	_, err := q.db.Exec(ctx, createMessage,
		arg.ID,
		arg.Content,
		arg.AuthorID,
		arg.AuthorUsername,
		arg.CreatedAt,
		arg.RoomCode,
		arg.ReplyingTo,
	)
	return err
}

const listMessages = `-- name: ListMessages :many
SELECT id, content, author_id, author_username, created_at, room_code, replying_to
FROM messages
ORDER BY created_at ASC
`

func (q *Queries) ListMessages(ctx context.Context) ([]Message, error) {
	rows, err := q.db.Query(ctx, listMessages)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

const listRoomMessages = `-- name: ListRoomMessages :many
SELECT id, content, author_id, author_username, created_at, room_code, replying_to
FROM messages
WHERE room_code = $1
ORDER BY created_at ASC
`

func (q *Queries) ListRoomMessages(ctx context.Context, roomCode string) ([]Message, error) {
	rows, err := q.db.Query(ctx, listRoomMessages, roomCode)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	defer rows.Close()

	var items []Message
	for rows.Next() {
		var i Message
		if err := rows.Scan(
			&i.ID,
			&i.Content,
			&i.AuthorID,
			&i.AuthorUsername,
			&i.CreatedAt,
			&i.RoomCode,
			&i.ReplyingTo,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMessage = `-- name: GetMessage :one
SELECT id, content, author_id, author_username, created_at, room_code, replying_to
FROM messages
WHERE id = $1
`

func (q *Queries) GetMessage(ctx context.Context, id int64) (Message, error) {
	row := q.db.QueryRow(ctx, getMessage, id)
	var i Message
	err := row.Scan(
		&i.ID,
		&i.Content,
		&i.AuthorID,
		&i.AuthorUsername,
		&i.CreatedAt,
		&i.RoomCode,
		&i.ReplyingTo,
	)
	return i, err
}

const deleteMessage = `-- name: DeleteMessage :exec
DELETE FROM messages WHERE id = $1
`

func (q *Queries) DeleteMessage(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteMessage, id)
	return err
}

const deleteAllMessages = `-- name: DeleteAllMessages :exec
DELETE FROM messages
`

func (q *Queries) DeleteAllMessages(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteAllMessages)
	return err
}

const updateMessageContent = `-- name: UpdateMessageContent :exec
UPDATE messages SET content = $2 WHERE id = $1
`

func (q *Queries) UpdateMessageContent(ctx context.Context, id int64, content string) error {
	_, err := q.db.Exec(ctx, updateMessageContent, id, content)
	return err
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (user_id, username, hashed_password, user_type)
VALUES ($1, $2, $3, $4)
`

type CreateUserParams struct {
	UserID         int64
	Username       string
	HashedPassword string
	UserType       int16
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.Exec(ctx, createUser,
		arg.UserID,
		arg.Username,
		arg.HashedPassword,
		arg.UserType,
	)
	return err
}

const getUserById = `-- name: GetUserById :one
SELECT user_id, username, hashed_password, user_type FROM users WHERE user_id = $1
`

func (q *Queries) GetUserById(ctx context.Context, userID int64) (User, error) {
	row := q.db.QueryRow(ctx, getUserById, userID)
	var i User
	err := row.Scan(&i.UserID, &i.Username, &i.HashedPassword, &i.UserType)
	return i, err
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT user_id, username, hashed_password, user_type FROM users WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUsername, username)
	var i User
	err := row.Scan(&i.UserID, &i.Username, &i.HashedPassword, &i.UserType)
	return i, err
}

const listUsers = `-- name: ListUsers :many
SELECT user_id, username, hashed_password, user_type FROM users ORDER BY username ASC
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.UserID, &i.Username, &i.HashedPassword, &i.UserType); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateUserPassword = `-- name: UpdateUserPassword :execrows
UPDATE users SET hashed_password = $2 WHERE user_id = $1
`

func (q *Queries) UpdateUserPassword(ctx context.Context, userID int64, hashedPassword string) (int64, error) {
	result, err := q.db.Exec(ctx, updateUserPassword, userID, hashedPassword)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
