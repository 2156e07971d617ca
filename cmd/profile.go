package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/partnerconsole/internal/api"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the partner profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the partner profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		p, err := a.partner(cmd.Context())
		if err != nil {
			return err
		}
		printProfile(p)
		return nil
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change name, phone or address",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		if _, err := a.partner(cmd.Context()); err != nil {
			return err
		}

		var update models.ProfileUpdate
		flags := cmd.Flags()
		if flags.Changed("name") {
			name, _ := flags.GetString("name")
			update.Name = &name
		}
		if flags.Changed("phone") {
			phone, _ := flags.GetString("phone")
			update.Phone = &phone
		}
		if addr := addressFlags(cmd); addr != nil {
			update.Address = []models.Address{*addr}
		}
		if update.Empty() {
			return fmt.Errorf("nothing to update, pass at least one of --name, --phone or an address flag")
		}

		p, err := a.store.UpdateProfile(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("profile update failed: %s", api.Message(err))
		}
		fmt.Println("Profile updated")
		printProfile(p)
		return nil
	},
}

func printProfile(p *models.PartnerProfile) {
	fmt.Printf("Name:    %s\n", p.Name)
	fmt.Printf("Email:   %s\n", p.Email)
	fmt.Printf("Phone:   %s\n", p.Phone)
	if addr := p.PrimaryAddress(); addr != (models.Address{}) {
		fmt.Printf("Address: %s\n", addr)
	}
	status := "Offline"
	if p.IsAvailable {
		status = "Online"
	}
	fmt.Printf("Status:  %s\n", status)
}

func init() {
	profileUpdateCmd.Flags().String("name", "", "Full name")
	profileUpdateCmd.Flags().String("phone", "", "Phone number")
	addAddressFlags(profileUpdateCmd)

	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}
