package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the access token",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		pw, err := passwordOrPrompt(cmd, password, "Password: ")
		if err != nil {
			return err
		}
		if _, err := c.app.Session.Login(cmd.Context(), email, pw); err != nil {
			return fmt.Errorf("login failed: %s", domain.Reason(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
		return nil
	})
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		pw, err := passwordOrPrompt(cmd, password, "Password: ")
		if err != nil {
			return err
		}
		if _, err := c.app.Session.Register(cmd.Context(), email, pw); err != nil {
			return fmt.Errorf("registration failed: %s", domain.Reason(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, run `clinic login` to sign in\n", email)
		return nil
	})
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		c.app.Session.Logout()
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	})
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		user, err := c.app.Session.RefreshUser(cmd.Context())
		if errors.Is(err, domain.ErrNotAuthenticated) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d, since %s)\n", user.Email, user.ID, user.CreatedAt.Format("2006-01-02"))
		return nil
	})
	return cmd
}

func (c *cli) passwdCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&current, "current", "", "current password (read from stdin when omitted)")
	cmd.Flags().StringVar(&next, "new", "", "new password (read from stdin when omitted)")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		cur, err := promptIfEmpty(cmd, in, current, "Current password: ")
		if err != nil {
			return err
		}
		nxt, err := promptIfEmpty(cmd, in, next, "New password: ")
		if err != nil {
			return err
		}
		if err := c.app.Session.ChangePassword(cmd.Context(), cur, nxt); err != nil {
			return fmt.Errorf("password change failed: %s", domain.Reason(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
		return nil
	})
	return cmd
}

func passwordOrPrompt(cmd *cobra.Command, value, prompt string) (string, error) {
	return promptIfEmpty(cmd, bufio.NewReader(cmd.InOrStdin()), value, prompt)
}

func promptIfEmpty(cmd *cobra.Command, in *bufio.Reader, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
		}
		return "", errors.New("empty input")
	}
	return line, nil
}
