// Package admin holds the server-rendered superuser views.
package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/johndosdos/chatrooms/internal/model"
)

// UserList renders every account as a table. Values are escaped.
func UserList(users []model.UserView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Users</title></head><body>`); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<h1>Users (%d)</h1>`, len(users)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<table><thead><tr><th>ID</th><th>Username</th><th>Type</th></tr></thead><tbody>`); err != nil {
			return err
		}

		for _, u := range users {
			_, err := fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`,
				u.UserID,
				templ.EscapeString(u.Username),
				templ.EscapeString(u.UserType.String()))
			if err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</tbody></table></body></html>`)
		return err
	})
}
