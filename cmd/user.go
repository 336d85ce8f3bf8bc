/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/protoboard/internal/db"
	"github.com/allbin/protoboard/internal/model"
	"github.com/allbin/protoboard/internal/store"
)

// passwordEnv lets scripts pass a password without a prompt
const passwordEnv = "PROTOBOARD_PASSWORD"

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage panel and HTTP users",
}

// userAddCmd represents the user add command
var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user",
	Long: `Create a user that can log in to the panel and, when http.auth is set,
to the HTTP command channel. The password is read from $PROTOBOARD_PASSWORD
or prompted for.

Example usage:
  protoboard user add admin --role admin --db-driver sqlite`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		role, _ := cmd.Flags().GetString("role")
		switch role {
		case model.RoleAdmin, model.RoleUser:
		default:
			fail("role must be %s or %s", model.RoleAdmin, model.RoleUser)
		}

		s, closeDB, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer closeDB()

		password := readPassword()
		if password == "" {
			fail("empty password")
		}

		user, err := s.CreateUser(cmd.Context(), args[0], password, role)
		if errors.Is(err, store.ErrUserExists) {
			fail("user %s already exists", args[0])
		}
		if err != nil {
			fail("%v", err)
		}

		okStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
		fmt.Println(okStyle.Render(fmt.Sprintf("Created %s user %s (id %d)", user.Role, user.Username, user.ID)))
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("role", model.RoleUser, "user role: admin or user")
}

// openStore opens the configured database for one-shot commands
func openStore() (store.Store, func(), error) {
	gdb, err := db.Init(&cfg.Database, logger.Named("db"))
	if errors.Is(err, db.ErrDisabled) {
		return nil, nil, errors.New("no database configured, set --db-driver")
	}
	if err != nil {
		return nil, nil, err
	}
	return store.NewGormStore(gdb), func() { _ = db.Close(gdb) }, nil
}

func readPassword() string {
	if p := os.Getenv(passwordEnv); p != "" {
		return p
	}
	return prompt("Password: ")
}

func prompt(label string) string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render(label))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// login checks credentials against the store before the panel opens
func login(ctx context.Context, a *app, username string) error {
	if a.store == nil {
		return errors.New("login needs a database, set --db-driver")
	}

	user, err := a.store.Authenticate(ctx, username, readPassword())
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("invalid username or password")
	}
	logger.Infow("User logged in", "user", user.Username, "role", user.Role)
	return nil
}
