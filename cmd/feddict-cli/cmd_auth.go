package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a glossary admin",
		Long: `Stores the admin credential in the config file and verifies it
against the backend. A rejected credential is removed again.

Without --password the password is read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username == "" {
				if username, err = a.prompt(r, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompt(r, "Password: "); err != nil {
					return err
				}
			}

			if err := a.session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			a.printf("Logged in as %s\n", a.session.Username())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin user name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored admin credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.session.Authenticated() {
				a.printf("Not logged in\n")
				return nil
			}
			user := a.session.Username()
			if !verify {
				a.printf("%s\n", user)
				return nil
			}
			if !a.session.Verify(cmd.Context()) {
				a.printf("Session for %s is no longer valid, logged out\n", user)
				return nil
			}
			a.printf("%s (verified)\n", user)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "re-check the credential with the backend")
	return cmd
}

// prompt writes label to the error stream and reads one line.
func (a *app) prompt(r *bufio.Reader, label string) (string, error) {
	_, _ = fmt.Fprint(a.errOut, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(strings.TrimSuffix(label, ": ")), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
