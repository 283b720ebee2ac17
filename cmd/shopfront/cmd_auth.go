package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyunwoopark/shopfront/internal/session"
	"github.com/hyunwoopark/shopfront/pkg/validate"
)

type signupInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required,min=2,max=50"`
}

// shopfront signup
var signupCmd = &cobra.Command{
	Use:   "signup <email> <password> <name>",
	Short: "Register a new account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := signupInput{Email: args[0], Password: args[1], Name: args[2]}
		if errs := validate.Struct(in); validate.HasErrors(errs) {
			return fmt.Errorf("invalid input: %v", errs)
		}

		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.api.Signup(cmd.Context(), in.Email, in.Password, in.Name); err != nil {
			return err
		}
		fmt.Println("Account created. Sign in with: shopfront login", in.Email, "<password>")
		return nil
	},
}

// shopfront login
var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Sign in and persist the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.session.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		if user.IsAdmin == 1 {
			fmt.Printf("Signed in as %s (admin)\n", user.Email)
			a.nav.Go("/admin")
		} else {
			fmt.Printf("Signed in as %s\n", user.Email)
			a.nav.Go("/")
		}
		return nil
	},
}

// shopfront logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		a.session.Logout(cmd.Context(), session.LogoutOptions{Reason: "user logout"})
		fmt.Println("Signed out.")
		return nil
	},
}

// shopfront withdraw
var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Close the account session (leaves the cart partition behind)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		a.session.Logout(cmd.Context(), session.LogoutOptions{IsWithdraw: true, Reason: "withdraw"})
		fmt.Println("Account session closed.")
		return nil
	},
}

var resetCode, resetNewPassword string

// shopfront reset-password
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Request a reset code, or redeem one with --code and --new-password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		if resetCode == "" {
			if err := a.api.SendPasswordResetEmail(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Println("Reset code sent. Redeem it with --code and --new-password.")
			return nil
		}

		if resetNewPassword == "" {
			return fmt.Errorf("--new-password is required with --code")
		}
		if err := a.api.ResetPassword(cmd.Context(), email, resetCode, resetNewPassword); err != nil {
			return err
		}
		fmt.Println("Password updated.")
		return nil
	},
}

// shopfront whoami
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		user := a.session.User()
		if user == nil {
			fmt.Println("Not signed in.")
			return nil
		}
		if user.IsAdmin == 1 {
			fmt.Printf("%s (admin)\n", user.Email)
		} else {
			fmt.Println(user.Email)
		}
		return nil
	},
}

func init() {
	resetPasswordCmd.Flags().StringVar(&resetCode, "code", "", "reset code from the email")
	resetPasswordCmd.Flags().StringVar(&resetNewPassword, "new-password", "", "new password to set")
}
