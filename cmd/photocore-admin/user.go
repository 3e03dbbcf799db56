package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage catalog users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create EMAIL PASSWORD",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		userID, err := cat.CreateUser(args[0], args[1])
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Printf("user created: %s\n", userID)
		return nil
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login EMAIL PASSWORD",
	Short: "Log in and print a session key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		key, err := cat.Login(args[0], args[1])
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Println(key)
		return nil
	},
}

var userSessionsCmd = &cobra.Command{
	Use:   "sessions SESSION_KEY",
	Short: "List a user's active session key prefixes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := cat.ListSessions(args[0])
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for _, s := range sessions {
			fmt.Println(s.KeyPrefix)
		}
		return nil
	},
}

var userLogoutCmd = &cobra.Command{
	Use:   "logout SESSION_KEY [TARGET_PREFIX]",
	Short: "Log out a session, or every session sharing a prefix",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		target := args[0]
		if len(args) == 2 {
			target = args[1]
		}
		if err := cat.Logout(args[0], target); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Println("logged out")
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete SESSION_KEY",
	Short: "Delete the authenticated user and everything they own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cat.DeleteUser(args[0]); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		fmt.Println("user deleted")
		return nil
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd, userLoginCmd, userSessionsCmd, userLogoutCmd, userDeleteCmd)
}
