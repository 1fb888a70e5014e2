package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"pressroom/app/models"
	"pressroom/app/services"
	"pressroom/app/signup"
	"pressroom/service"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	suEmail       string
	suPassword    string
	suConfirm     string
	suRole        string
	suFirstName   string
	suLastName    string
	suOrg         string
	suJobTitle    string
	suPhone       string
	suCountry     string
	suTopics      string
	suNewsletter  bool
	suAcceptTerms bool

	whoamiRefresh bool

	resendEmail string

	resetPassword string
	resetConfirm  string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (read from stdin when empty)")

	signupCmd.Flags().StringVar(&suEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&suPassword, "password", "", "Password, at least 8 characters")
	signupCmd.Flags().StringVar(&suConfirm, "confirm-password", "", "Password confirmation (defaults to --password)")
	signupCmd.Flags().StringVar(&suRole, "role", string(models.RoleJournalist), "journalist or comms")
	signupCmd.Flags().StringVar(&suFirstName, "first-name", "", "First name")
	signupCmd.Flags().StringVar(&suLastName, "last-name", "", "Last name")
	signupCmd.Flags().StringVar(&suOrg, "organization", "", "Media outlet or company")
	signupCmd.Flags().StringVar(&suJobTitle, "job-title", "", "Job title")
	signupCmd.Flags().StringVar(&suPhone, "phone", "", "Phone number in E.164 format")
	signupCmd.Flags().StringVar(&suCountry, "country", "", "ISO 3166 country code")
	signupCmd.Flags().StringVar(&suTopics, "topics", "", "Comma separated topics of interest")
	signupCmd.Flags().BoolVar(&suNewsletter, "newsletter", false, "Subscribe to the newsletter")
	signupCmd.Flags().BoolVar(&suAcceptTerms, "accept-terms", false, "Accept the terms of service")

	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "Fetch the profile from the portal")

	verifyCmd.Flags().StringVar(&resendEmail, "resend", "", "Send a new verification email to this address instead")

	passwordResetCmd.Flags().StringVar(&resetPassword, "password", "", "New password (required)")
	passwordResetCmd.Flags().StringVar(&resetConfirm, "confirm-password", "", "Password confirmation (defaults to --password)")

	passwordCmd.AddCommand(passwordForgotCmd)
	passwordCmd.AddCommand(passwordResetCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(passwordCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and cache the session",
	Long: `Log in to the portal and store the tokens in the local cache.

Examples:
  # Log in, typing the password on stdin
  pressroom login --email jane@example.com

  # Non-interactive
  echo "$PASSWORD" | pressroom login --email jane@example.com`,
	Args: cobra.NoArgs,
	RunE: withApp(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the cached session",
	Args:  cobra.NoArgs,
	RunE:  withApp(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Long: `Show the logged in user. With --refresh the profile is fetched from
the portal and the cached copy is updated.`,
	Args: cobra.NoArgs,
	RunE: withApp(runWhoami),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	Long: `Register a new account. The form is validated step by step
(credentials, profile, interests) before anything is sent.

Examples:
  pressroom signup --email jane@example.com --password s3cretpass \
    --first-name Jane --last-name Doe --organization "Daily Planet" \
    --country us --topics politics,tech --accept-terms`,
	Args: cobra.NoArgs,
	RunE: withApp(runSignup),
}

var verifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "Verify an email address",
	Long: `Verify the email address of an account with the token from the
verification email.

Examples:
  pressroom verify 3f2a9c

  # Ask for a new email
  pressroom verify --resend jane@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(runVerify),
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Recover a forgotten password",
}

var passwordForgotCmd = &cobra.Command{
	Use:   "forgot <email>",
	Short: "Send a password reset email",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPasswordForgot),
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset <token>",
	Short: "Set a new password with a reset token",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPasswordReset),
}

func runLogin(cmd *cobra.Command, _ []string, a *service.App) error {
	if loginEmail == "" {
		return fmt.Errorf("--email is required")
	}
	password := loginPassword
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		p, err := readLine(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = p
	}
	u, err := a.Auth.Login(cmd.Context(), loginEmail, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if outputJSON {
		return printJSON(cmd, u)
	}
	say(cmd, "Logged in as %s (%s)", u.Email, u.Role)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string, a *service.App) error {
	if err := a.Auth.Logout(cmd.Context()); err != nil {
		return err
	}
	say(cmd, "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string, a *service.App) error {
	var u models.User
	if whoamiRefresh {
		var err error
		if u, err = a.Auth.Me(cmd.Context()); err != nil {
			return err
		}
	} else {
		snap := a.Session.Snapshot()
		if !snap.LoggedIn() {
			return services.ErrNotLoggedIn
		}
		u = snap.User
	}
	if outputJSON {
		return printJSON(cmd, u)
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Name:\t%s\n", orDash(strings.TrimSpace(u.FirstName+" "+u.LastName)))
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	fmt.Fprintf(w, "Status:\t%s\n", orDash(u.Status))
	fmt.Fprintf(w, "Verified:\t%t\n", u.IsVerified)
	fmt.Fprintf(w, "Organization:\t%s\n", orDash(u.Organization))
	return w.Flush()
}

func runSignup(cmd *cobra.Command, _ []string, a *service.App) error {
	confirm := suConfirm
	if confirm == "" {
		confirm = suPassword
	}
	form := signup.Form{
		Credentials: signup.Credentials{
			Email:           suEmail,
			Password:        suPassword,
			ConfirmPassword: confirm,
			Role:            models.Role(suRole),
		},
		Profile: signup.Profile{
			FirstName:    suFirstName,
			LastName:     suLastName,
			Organization: suOrg,
			JobTitle:     suJobTitle,
			Phone:        suPhone,
			Country:      suCountry,
		},
		Interests: signup.Interests{
			Topics:      splitList(suTopics),
			Newsletter:  suNewsletter,
			AcceptTerms: suAcceptTerms,
		},
	}
	resp, err := a.Auth.Register(cmd.Context(), form)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	say(cmd, "Registered %s as %s", resp.User.Email, resp.User.Role)
	if resp.Message != "" {
		say(cmd, "%s", resp.Message)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string, a *service.App) error {
	if resendEmail != "" {
		if err := a.Auth.ResendVerification(cmd.Context(), resendEmail); err != nil {
			return err
		}
		say(cmd, "Verification email sent to %s", resendEmail)
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("verification token required")
	}
	if err := a.Auth.VerifyEmail(cmd.Context(), args[0]); err != nil {
		return err
	}
	say(cmd, "Email verified")
	return nil
}

func runPasswordForgot(cmd *cobra.Command, args []string, a *service.App) error {
	if err := a.Auth.ForgotPassword(cmd.Context(), args[0]); err != nil {
		return err
	}
	say(cmd, "If %s has an account, a reset link is on its way", args[0])
	return nil
}

func runPasswordReset(cmd *cobra.Command, args []string, a *service.App) error {
	confirm := resetConfirm
	if confirm == "" {
		confirm = resetPassword
	}
	if err := a.Auth.ResetPassword(cmd.Context(), args[0], resetPassword, confirm); err != nil {
		return err
	}
	say(cmd, "Password updated")
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
