package main

import (
	"errors"
	"fmt"

	"github.com/habitboard/internal/db"
	"github.com/spf13/cobra"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a user with a bcrypt-hashed password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Login password")
	_ = userAddCmd.MarkFlagRequired("password")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	if _, err := openServices(); err != nil {
		return err
	}

	name := args[0]
	if _, err := db.FindUser(db.DB, name); err == nil {
		return fmt.Errorf("user %q already exists", name)
	}
	if err := db.EnsureUser(name, userPassword); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	id, err := lookupUserID(name)
	if err != nil {
		return errors.New("user was not created, name and password must be non-empty")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id=%d)\n", name, id)
	return nil
}
