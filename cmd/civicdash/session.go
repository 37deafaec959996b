package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/session"
)

var errNotSignedIn = errors.New("not signed in, run `civicdash login` first")

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Sign in and store the session token",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("CIVICDASH_PASSWORD")
		}

		if email == "" || password == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}

		res, err := client.Login(context.Background(), strings.TrimSpace(email), password)
		if err != nil {
			return fmt.Errorf("login failed: %s", api.Message(err))
		}
		if err := sess.SetCredentials(&res.User, res.Token, res.RefreshToken); err != nil {
			return fmt.Errorf("storing credentials: %w", err)
		}

		fmt.Printf("Signed in as %s (%s)\n", res.User.Name, res.User.Role.Label())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Sign out and forget the stored tokens",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if token, _ := sess.Tokens(); token != "" {
			if err := client.Logout(context.Background()); err != nil {
				log.WithError(err).Debug("server logout failed")
			}
		}
		if err := sess.Logout(); err != nil {
			return fmt.Errorf("clearing credentials: %w", err)
		}
		fmt.Println("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the signed-in user",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		st := sess.Snapshot()
		if jsonOutput {
			printJSON(st.User)
			return nil
		}

		u := st.User
		fmt.Printf("Name:        %s\n", u.Name)
		fmt.Printf("Email:       %s\n", u.Email)
		fmt.Printf("Role:        %s\n", u.Role.Label())
		if u.Department != nil {
			fmt.Printf("Department:  %s\n", u.Department.Name)
		}
		if exp, err := session.Expiry(st.Token); err == nil {
			left := time.Until(exp).Round(time.Minute)
			if left > 0 {
				fmt.Printf("Token:       expires %s (in %s)\n", exp.Format("2006-01-02 15:04"), left)
			} else {
				fmt.Printf("Token:       expired %s\n", exp.Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("email", "e", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when empty)")
}

// requireSession resolves the stored token into a signed-in user.
func requireSession() error {
	if token, _ := sess.Tokens(); token == "" {
		return errNotSignedIn
	}
	if err := sess.Bootstrap(context.Background(), client); err != nil {
		if api.IsTransport(err) {
			return fmt.Errorf("cannot reach %s", client.BaseURL())
		}
		return errNotSignedIn
	}
	return nil
}
