package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/copier"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/textutil"
)

const (
	formatPretty = "pretty"
	formatJSON   = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatPretty, formatJSON, "":
		return nil
	default:
		return domain.NewError("cli.format", domain.KindValidation,
			fmt.Sprintf("unsupported format %q (expected pretty|json)", format))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResource(w io.Writer, r domain.Resource) {
	fmt.Fprintf(w, "ID:       %s\n", r.ID)
	fmt.Fprintf(w, "Name:     %s\n", r.Data.Name)
	fmt.Fprintf(w, "Type:     %s\n", r.Data.Type)
	if r.Data.Description != nil {
		fmt.Fprintf(w, "Desc:     %s\n", *r.Data.Description)
	}
	if r.OwnerID != nil {
		fmt.Fprintf(w, "Owner:    %s\n", *r.OwnerID)
	}
	fmt.Fprintf(w, "Created:  %s\n", r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:  %s\n", r.UpdatedAt.Format(time.RFC3339))
	printMap(w, "Data", r.Data.Data)
	printMap(w, "Metadata", r.Data.Metadata)
}

func printMap(w io.Writer, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  - %s = %s\n", k, textutil.Truncate(m[k], 80))
	}
}

func printResourceList(w io.Writer, items []domain.Resource) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no resources found)")
		return
	}
	for _, r := range items {
		fmt.Fprintf(w, "- %s  %-8s  %s\n", r.ID, r.Data.Type, textutil.Truncate(r.Data.Name, 60))
	}
}

// userRow is the printable view of a user. Permissions are flattened to a
// sorted list of explicit and role grants.
type userRow struct {
	ID            string              `json:"id"`
	Email         string              `json:"email"`
	Name          string              `json:"name"`
	Role          domain.UserRole     `json:"role"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"email_verified"`
	CreatedAt     time.Time           `json:"created_at"`
	LastLogin     *time.Time          `json:"last_login,omitempty"`
	Granted       []domain.Permission `json:"permissions"`
}

func toUserRow(u domain.User) (userRow, error) {
	var row userRow
	if err := copier.Copy(&row, &u); err != nil {
		return userRow{}, err
	}
	row.Granted = u.AllPermissions().Sorted()
	return row, nil
}

func toUserRows(users []domain.User) ([]userRow, error) {
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		row, err := toUserRow(u)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printUser(w io.Writer, row userRow) {
	fmt.Fprintf(w, "ID:       %s\n", row.ID)
	fmt.Fprintf(w, "Email:    %s\n", row.Email)
	fmt.Fprintf(w, "Name:     %s\n", row.Name)
	fmt.Fprintf(w, "Role:     %s\n", row.Role)
	fmt.Fprintf(w, "Enabled:  %t\n", row.Enabled)
	fmt.Fprintf(w, "Verified: %t\n", row.EmailVerified)
	fmt.Fprintf(w, "Created:  %s\n", row.CreatedAt.Format(time.RFC3339))
	if row.LastLogin != nil {
		fmt.Fprintf(w, "Login:    %s\n", row.LastLogin.Format(time.RFC3339))
	}
	perms := make([]string, 0, len(row.Granted))
	for _, p := range row.Granted {
		perms = append(perms, p.String())
	}
	fmt.Fprintf(w, "Perms:    %s\n", strings.Join(perms, ", "))
}

func printUserList(w io.Writer, rows []userRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no users found)")
		return
	}
	for _, r := range rows {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(w, "- %s  %-24s  %-8s  %s\n", r.ID, r.Email, r.Role, state)
	}
}
