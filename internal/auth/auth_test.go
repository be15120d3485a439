package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
	"github.com/johndosdos/chatrooms/internal/testutil"
)

func TestHashPassword(t *testing.T) {
	t.Run("unique hashes", func(t *testing.T) {
		pw := "password1234"
		hash, err := HashPassword(pw)
		if err != nil {
			t.Fatalf("password hash fail #1: %+v", err)
		}

		hash2, err := HashPassword(pw)
		if err != nil {
			t.Fatalf("password hash fail #2: %+v", err)
		}

		if hash == hash2 {
			t.Fatalf("hash and hash2 are the same hashes; should be different: %s, %s", hash, hash2)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := HashPassword("")
		if err != nil {
			t.Errorf("HashPassword() failed on empty string: %+v", err)
		}
	})
}

func TestCheckPasswordHash(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		checkPw   string
		hash      string
		wantErr   bool
		wantMatch bool
	}{
		{"correct pw", "mypassword1234", "mypassword1234", "", false, true},
		{"incorrect pw", "mypassword1234", "passwordDD1234", "", true, false},
		{"wrong hash", "mypassword1234", "passwordDD1234", "not-a-hash", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hash string
			var err error

			if tt.hash != "" {
				hash = tt.hash
			} else {
				hash, err = HashPassword(tt.password)
				if err != nil {
					t.Fatalf("%+v", err)
				}
			}

			isMatch, err := CheckPasswordHash(tt.checkPw, hash)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckPasswordHash() error = %+v", err)
			}
			if isMatch != tt.wantMatch {
				t.Errorf("CheckPasswordHash() = %v, want %v", isMatch, tt.wantMatch)
			}
		})
	}
}

func TestJWT(t *testing.T) {
	issuer := TokenIssuer{Secret: "validtokensecret", Issuer: "chatrooms", ExpiresIn: 15 * time.Second}

	t.Run("Valid_JWT", func(t *testing.T) {
		tokenString, err := issuer.MakeJWT(17000000001234, "abc")
		require.NoError(t, err)

		gotUserID, gotRoom, err := issuer.ValidateJWT(tokenString)
		require.NoError(t, err)
		assert.Equal(t, int64(17000000001234), gotUserID)
		assert.Equal(t, "abc", gotRoom)
	})

	t.Run("Empty_room_is_global", func(t *testing.T) {
		tokenString, err := issuer.MakeJWT(1, "")
		require.NoError(t, err)

		_, gotRoom, err := issuer.ValidateJWT(tokenString)
		require.NoError(t, err)
		assert.Equal(t, model.GlobalRoom, gotRoom)
	})

	t.Run("Incorrect_secret", func(t *testing.T) {
		tokenString, err := issuer.MakeJWT(1, "abc")
		require.NoError(t, err)

		fake := issuer
		fake.Secret = "fakesecret"
		_, _, err = fake.ValidateJWT(tokenString)
		assert.Error(t, err)
	})

	t.Run("Expired_token", func(t *testing.T) {
		expired := issuer
		expired.ExpiresIn = -1 * time.Second
		tokenString, err := expired.MakeJWT(1, "abc")
		require.NoError(t, err)

		_, _, err = issuer.ValidateJWT(tokenString)
		assert.Error(t, err)
	})

	t.Run("Corrupt_token", func(t *testing.T) {
		_, _, err := issuer.ValidateJWT("corrupttoken")
		assert.Error(t, err)
	})
}

func TestSessionFromContext(t *testing.T) {
	t.Run("valid_session", func(t *testing.T) {
		want := Session{UserID: 5, Username: "alice", Role: model.Superuser, RoomCode: "GLOBAL"}
		got, err := SessionFromContext(WithSession(context.Background(), want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, got.IsSuperuser())
	})

	t.Run("wrong_type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
		_, err := SessionFromContext(ctx)
		assert.Error(t, err)
	})

	t.Run("empty_session", func(t *testing.T) {
		_, err := SessionFromContext(WithSession(context.Background(), Session{}))
		assert.Error(t, err)
	})

	t.Run("no_context", func(t *testing.T) {
		_, err := SessionFromContext(context.Background())
		assert.Error(t, err)
	})
}

func TestSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", time.Hour, true)
	ClearSessionCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, -1, cookies[1].MaxAge)
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testutil.MemoryStore(t)

	user, err := CreateUser(ctx, s, " alice ", "hunter22", model.Regular)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	_, err = CreateUser(ctx, s, "alice", "other", model.Regular)
	assert.ErrorIs(t, err, store.ErrDuplicateUser)

	_, err = CreateUser(ctx, s, "", "pw", model.Regular)
	assert.ErrorIs(t, err, ErrEmptyField)

	got, err := Authenticate(ctx, s, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)

	_, err = Authenticate(ctx, s, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(ctx, s, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, ResetPassword(ctx, s, "alice", "newpass"))
	_, err = Authenticate(ctx, s, "alice", "newpass")
	assert.NoError(t, err)

	err = ResetPassword(ctx, s, "nobody", "x")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
