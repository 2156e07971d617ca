package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/partnerconsole/internal/dashboard"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

// withBoard runs fn against a freshly loaded board for the signed-in partner.
func withBoard(ctx context.Context, fn func(vm *dashboard.ViewModel) error) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	p, err := a.partner(ctx)
	if err != nil {
		return err
	}
	vm := a.viewModel(p, cliNotifier{}, nil)
	defer vm.Close()
	if err := vm.Refresh(ctx); err != nil {
		return err
	}
	return fn(vm)
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Show available orders, the active delivery and today's stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd.Context(), func(vm *dashboard.ViewModel) error {
			printBoard(vm.Snapshot())
			return nil
		})
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept <order-id>",
	Short: "Accept an available order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd.Context(), func(vm *dashboard.ViewModel) error {
			return vm.AcceptOrder(cmd.Context(), args[0])
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <order-id> <picked_up|on_the_way|delivered>",
	Short: "Move an order to its next status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		next := models.OrderStatus(args[1])
		if !next.Valid() {
			return fmt.Errorf("unknown status %q", args[1])
		}
		return withBoard(cmd.Context(), func(vm *dashboard.ViewModel) error {
			return vm.AdvanceStatus(cmd.Context(), args[0], next)
		})
	},
}

func availabilityCmd(use string, online bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Go %s", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd.Context(), func(vm *dashboard.ViewModel) error {
				return vm.ToggleAvailability(cmd.Context(), online)
			})
		},
	}
}

func printBoard(s dashboard.Snapshot) {
	status := "Offline"
	if s.Online {
		status = "Online"
	}
	fmt.Printf("Status: %s\n\n", status)
	printStats(s.Stats)

	fmt.Println("\nActive delivery:")
	if s.Active == nil {
		fmt.Println("  none")
	} else {
		o := s.Active
		fmt.Printf("  %s  %s → %s  [%s]\n", o.ID, o.Restaurant.Name, o.Customer.Address, o.OrderStatus.Label())
		for _, a := range dashboard.NextActions(*o) {
			fmt.Printf("  next: partnerconsole status %s %s  (%s)\n", o.ID, a.Next, a.Label)
		}
	}

	fmt.Printf("\nAvailable orders (%d):\n", len(s.Available))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tRESTAURANT\tPICKUP\tDROP\tAMOUNT")
	for _, o := range s.Available {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t₹%.2f\n", o.ID, o.Restaurant.Name, o.Restaurant.Address, o.Customer.Address, o.TotalAmount)
	}
	_ = w.Flush()
}

func printStats(s models.DeliveryStats) {
	fmt.Printf("Today:  %d deliveries, ₹%.2f\n", s.TodayDeliveries, s.TodayEarnings)
	fmt.Printf("Week:   %d deliveries\n", s.WeekDeliveries)
	fmt.Printf("Month:  %d deliveries, ₹%.2f\n", s.MonthDeliveries, s.MonthEarnings)
	fmt.Printf("Rating: %.1f   Orders on board: %d   Lifetime: %d\n", s.AverageRating, s.ActiveOrders, s.TotalDeliveries)
}

func init() {
	rootCmd.AddCommand(ordersCmd, acceptCmd, statusCmd, availabilityCmd("online", true), availabilityCmd("offline", false))
}
