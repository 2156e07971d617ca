package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chrisdamba/partnerconsole/internal/api"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a delivery partner account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		email, _ := flags.GetString("email")
		phone, _ := flags.GetString("phone")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		form := models.RegistrationForm{Name: name, Email: email, Phone: phone, Password: password}
		if addr := addressFlags(cmd); addr != nil {
			form.Address = []models.Address{*addr}
		}

		p, err := a.store.Register(cmd.Context(), form)
		if err != nil {
			return fmt.Errorf("registration failed: %s", api.Message(err))
		}
		a.saveSession()
		fmt.Printf("Welcome aboard, %s!\n", p.Name)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		p, err := a.store.Login(cmd.Context(), models.Credentials{Email: email, Password: password})
		if err != nil {
			return fmt.Errorf("login failed: %s", api.Message(err))
		}
		a.saveSession()
		if !p.IsPartner() {
			fmt.Println(deniedMessage)
			return nil
		}
		fmt.Printf("Signed in as %s\n", p.Name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		a.store.Logout(cmd.Context())
		if err := api.ClearSession(cfg.SessionFile); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in partner",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		p, ok := a.store.FetchCurrentProfile(cmd.Context())
		if !ok {
			fmt.Println("Not signed in")
			return nil
		}
		status := "offline"
		if p.IsAvailable {
			status = "online"
		}
		fmt.Printf("%s <%s> (%s, %s)\n", p.Name, p.Email, p.Role, status)
		return nil
	},
}

// passwordFlag falls back to an interactive prompt when --password is not
// given.
func passwordFlag(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func addressFlags(cmd *cobra.Command) *models.Address {
	flags := cmd.Flags()
	line1, _ := flags.GetString("line1")
	city, _ := flags.GetString("city")
	pincode, _ := flags.GetString("pincode")
	if line1 == "" && city == "" && pincode == "" {
		return nil
	}
	return &models.Address{Line1: line1, City: city, Pincode: pincode}
}

func addAddressFlags(cmd *cobra.Command) {
	cmd.Flags().String("line1", "", "Street address")
	cmd.Flags().String("city", "", "City")
	cmd.Flags().String("pincode", "", "Postal code")
}

func init() {
	registerCmd.Flags().String("name", "", "Full name")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("phone", "", "Phone number")
	registerCmd.Flags().String("password", "", "Password (prompted when omitted)")
	addAddressFlags(registerCmd)
	for _, f := range []string{"name", "email", "phone"} {
		cobra.CheckErr(registerCmd.MarkFlagRequired(f))
	}

	loginCmd.Flags().String("email", "", "Email address")
	loginCmd.Flags().String("password", "", "Password (prompted when omitted)")
	cobra.CheckErr(loginCmd.MarkFlagRequired("email"))

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}
