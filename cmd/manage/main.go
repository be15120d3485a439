// Package main provides administrative commands against the configured
// store: clearing messages and managing accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/johndosdos/chatrooms/internal/auth"
	"github.com/johndosdos/chatrooms/internal/config"
	"github.com/johndosdos/chatrooms/internal/model"
	"github.com/johndosdos/chatrooms/internal/store"
	"github.com/johndosdos/chatrooms/internal/store/backend"
)

const usage = `usage: manage <command> [flags]

commands:
  clear-messages                              delete every message
  create-user -username U -password P [-superuser]
  reset-password -username U -password P
  list-users
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s, err := backend.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := run(ctx, os.Args[1:], os.Stdout, s); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		s.Close()
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, out io.Writer, s store.Store) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "clear-messages":
		if err := s.DeleteAllMessages(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "all messages deleted")
		return nil

	case "create-user":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		username := fs.String("username", "", "account name")
		password := fs.String("password", "", "account password")
		superuser := fs.Bool("superuser", false, "grant superuser role")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}

		role := model.Regular
		if *superuser {
			role = model.Superuser
		}
		user, err := auth.CreateUser(ctx, s, *username, *password, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s user %q (id %d)\n", user.Role, user.Username, user.UserID)
		return nil

	case "reset-password":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		username := fs.String("username", "", "account name")
		password := fs.String("password", "", "new password")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}

		if err := auth.ResetPassword(ctx, s, *username, *password); err != nil {
			return err
		}
		fmt.Fprintf(out, "password reset for %q\n", *username)
		return nil

	case "list-users":
		users, err := s.GetAllUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Fprintf(out, "%d\t%s\t%s\n", u.UserID, u.Username, u.Role)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
