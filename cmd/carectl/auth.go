package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"carelink.org/internal/care"
)

// promptSecret reads a line from stdin without echoing back a prompt banner.
// carectl deliberately also accepts the password via flag for scripting.
func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd(a func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				var err error
				if password, err = promptSecret("Password"); err != nil {
					return err
				}
			}
			if err := a().sess.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			snap := a().sess.Snapshot()
			a().log.Info().Str("user", snap.User.Email).Str("role", string(snap.User.Role)).Msg("signed in")
			return printJSON(snap.User)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a().sess.Logout(cmd.Context())
			a().log.Info().Msg("signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and token expiry",
		RunE: func(_ *cobra.Command, _ []string) error {
			snap := a().sess.Snapshot()
			if !snap.Authenticated {
				return errors.New("not signed in")
			}
			out := map[string]any{"user": snap.User}
			if exp, err := a().sess.AccessTokenExpiry(); err == nil {
				out["tokenExpiresAt"] = exp.Format(time.RFC3339)
				out["tokenExpiresIn"] = time.Until(exp).Round(time.Second).String()
			}
			return printJSON(out)
		},
	}
}

func newRegisterCmd(a func() *app) *cobra.Command {
	var req care.RegisterCaregiverRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a caregiver account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Email == "" || req.FirstName == "" || req.LastName == "" {
				return errors.New("--email, --first-name and --last-name are required")
			}
			if req.Password == "" {
				var err error
				if req.Password, err = promptSecret("Password"); err != nil {
					return err
				}
			}
			if err := a().sess.Register(cmd.Context(), req); err != nil {
				return err
			}
			a().log.Info().Str("email", req.Email).Msg("caregiver registered")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Address, "address", "", "postal address")
	return cmd
}

func newPasswordCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password maintenance",
	}

	var current, next string
	change := &cobra.Command{
		Use:   "change",
		Short: "Rotate the signed-in user's password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if current == "" {
				if current, err = promptSecret("Current password"); err != nil {
					return err
				}
			}
			if next == "" {
				if next, err = promptSecret("New password"); err != nil {
					return err
				}
			}
			return a().sess.ChangePassword(cmd.Context(), current, next)
		},
	}
	change.Flags().StringVar(&current, "current", "", "current password (prompted when omitted)")
	change.Flags().StringVar(&next, "new", "", "new password (prompted when omitted)")

	var email string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Start the email reset flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			return a().sess.ForgotPassword(cmd.Context(), email)
		},
	}
	forgot.Flags().StringVar(&email, "email", "", "account email")

	var token, newPassword string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Complete the reset flow with the emailed token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			var err error
			if newPassword == "" {
				if newPassword, err = promptSecret("New password"); err != nil {
					return err
				}
			}
			return a().sess.ResetPassword(cmd.Context(), token, newPassword)
		},
	}
	reset.Flags().StringVar(&token, "token", "", "reset token from the email")
	reset.Flags().StringVar(&newPassword, "new", "", "new password (prompted when omitted)")

	cmd.AddCommand(change, forgot, reset)
	return cmd
}

func newRefreshCmd(a func() *app) *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if window > 0 && !a().sess.NeedsRefresh(window) {
				a().log.Info().Dur("window", window).Msg("token still fresh, skipping")
				return nil
			}
			if err := a().sess.Refresh(cmd.Context()); err != nil {
				return err
			}
			exp, err := a().sess.AccessTokenExpiry()
			if err != nil {
				return err
			}
			return printJSON(map[string]string{"tokenExpiresAt": exp.Format(time.RFC3339)})
		},
	}
	cmd.Flags().DurationVar(&window, "if-expiring-within", 0, "only refresh when the token expires within this window")
	return cmd
}
