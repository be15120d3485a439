package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("internal/auth: invalid username or password")
	ErrPasswordMismatch   = errors.New("internal/auth: passwords do not match")
	ErrEmptyField         = errors.New("internal/auth: username and password are required")
)

// Claims is the payload of a session token. The subject is the user id.
type Claims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	hashed_pw, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("internal/auth: pw hash failed: %w", err)
	}

	return hashed_pw, nil
}

func CheckPasswordHash(password, hash string) (bool, error) {
	isMatch, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("internal/auth: pw and hash comparison failed: %w", err)
	}
	if !isMatch {
		return false, errors.New("internal/auth: pw and hash do not match")
	}

	return isMatch, nil
}

// TokenIssuer mints and validates session tokens.
type TokenIssuer struct {
	Secret    string
	Issuer    string
	ExpiresIn time.Duration
}

func (ti TokenIssuer) MakeJWT(userID int64, room string) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Room: model.NormalizeRoom(room),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ExpiresIn)),
		},
	})

	return token.SignedString([]byte(ti.Secret))
}

// ValidateJWT returns the user id and room carried by a valid token.
func (ti TokenIssuer) ValidateJWT(tokenString string) (int64, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(ti.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, "", fmt.Errorf("internal/auth: failed to parse token: %w", err)
	}

	if !token.Valid {
		return 0, "", errors.New("internal/auth: token is invalid")
	}

	if claims.Subject == "" {
		return 0, "", errors.New("internal/auth: subject claim is missing")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("internal/auth: bad subject claim: %w", err)
	}

	return userID, model.NormalizeRoom(claims.Room), nil
}

// Authenticate checks username and password against the user store.
func Authenticate(ctx context.Context, users store.UserStore, username, password string) (model.User, error) {
	user, err := users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("internal/auth: lookup user: %w", err)
	}

	if ok, err := CheckPasswordHash(password, user.PasswordHash); err != nil || !ok {
		return model.User{}, ErrInvalidCredentials
	}

	return user, nil
}

const maxIDAttempts = 5

// CreateUser hashes password and stores a new account under a fresh id.
// A taken username surfaces as store.ErrDuplicateUser.
func CreateUser(ctx context.Context, users store.UserStore, username, password string, role model.Role) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, ErrEmptyField
	}

	if _, err := users.GetUserByUsername(ctx, username); err == nil {
		return model.User{}, fmt.Errorf("internal/auth: %q: %w", username, store.ErrDuplicateUser)
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("internal/auth: lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	// The username is free, so a duplicate here is an id collision.
	for range maxIDAttempts {
		user := model.User{
			UserID:       model.NewID(time.Now()),
			Username:     username,
			PasswordHash: hash,
			Role:         role,
		}
		err = users.AddUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, store.ErrDuplicateUser) {
			return model.User{}, fmt.Errorf("internal/auth: add user: %w", err)
		}
	}

	return model.User{}, fmt.Errorf("internal/auth: add user %q: %w", username, err)
}

// ResetPassword replaces the stored hash of username.
func ResetPassword(ctx context.Context, users store.UserStore, username, password string) error {
	if password == "" {
		return ErrEmptyField
	}

	user, err := users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("internal/auth: lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	if err := users.UpdatePassword(ctx, user.UserID, hash); err != nil {
		return fmt.Errorf("internal/auth: update password: %w", err)
	}
	return nil
}
