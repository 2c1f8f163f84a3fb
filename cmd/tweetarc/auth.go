package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tweetarc/pkg/auth"
	"tweetarc/pkg/ui"
)

// authCmd groups credential management subcommands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the API bearer token",
	Long: `Manage the bearer token used to authenticate against the search API.

The token is stored in the system keychain when available, falling back to
an encrypted file with restricted permissions. The TWEETARC_BEARER_TOKEN
environment variable always takes precedence when set.`,
}

// authLoginCmd stores a bearer token.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Bearer token: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}

		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Set(token); err != nil {
			return err
		}

		ui.PrintSuccess("Token stored")
		return nil
	},
}

// authLogoutCmd removes the stored token.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Delete(); err != nil {
			return err
		}
		ui.PrintSuccess("Token removed")
		return nil
	},
}

// authStatusCmd reports whether a token is configured.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a bearer token is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		token, err := manager.Get()
		if err != nil {
			ui.PrintWarning("No token configured")
			os.Exit(1)
		}
		ui.PrintInfo("Token", auth.MaskToken(token))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}
