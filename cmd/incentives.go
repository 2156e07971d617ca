package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chrisdamba/partnerconsole/internal/dashboard"
)

var incentivesCmd = &cobra.Command{
	Use:   "incentives",
	Short: "Show incentive targets and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd.Context(), func(vm *dashboard.ViewModel) error {
			statuses, err := vm.Incentives(cmd.Context())
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println("No incentives right now")
				return nil
			}
			for _, s := range statuses {
				state := "active"
				switch {
				case s.Completed:
					state = "completed"
				case !s.Active:
					state = "not active now"
				}
				window := "all day"
				if s.Incentive.StartTime != "" && s.Incentive.EndTime != "" {
					window = s.Incentive.StartTime + "–" + s.Incentive.EndTime
				}
				fmt.Printf("%s (%s, %s, reward ₹%.0f) %s\n", s.Incentive.Title, s.Incentive.Type, window, s.Incentive.Reward, state)
				bar := progressbar.NewOptions(100,
					progressbar.OptionSetWriter(os.Stdout),
					progressbar.OptionSetWidth(30),
					progressbar.OptionShowCount(),
					progressbar.OptionSetPredictTime(false),
					progressbar.OptionSetDescription(s.Incentive.Description),
				)
				_ = bar.Set(int(s.Progress))
				fmt.Println()
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(incentivesCmd)
}
