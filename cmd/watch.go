package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chrisdamba/partnerconsole/internal/dashboard"
	"github.com/chrisdamba/partnerconsole/internal/location"
	"github.com/chrisdamba/partnerconsole/internal/models"
	"github.com/chrisdamba/partnerconsole/internal/realtime"
	"github.com/chrisdamba/partnerconsole/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logFile, _ := cmd.Flags().GetString("log-file")
		f, err := tea.LogToFile(logFile, "partnerconsole")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		var channel *realtime.Channel
		var emitter dashboard.Emitter
		if dial := a.dialer(); dial != nil {
			channel = realtime.NewChannel(dial)
			emitter = channel
			// the session probe below connects the channel
			a.store.Subscribe(channel.FollowSession(ctx))
			defer channel.Close()
		}

		p, err := a.partner(ctx)
		if err != nil {
			return err
		}

		bridge := tui.NewBridge()
		tracker := dashboard.NewTracker(a.locationSource(), emitter, a.client)
		vm := a.viewModel(p, bridge, tracker)
		defer vm.Close()
		vm.Subscribe(bridge.Publish)
		if channel != nil {
			channel.OnEvent(func(m realtime.Message) { vm.HandleEvent(m.Event) })
		}

		program := tea.NewProgram(tui.NewModel(ctx, vm, bridge, p.Name), programOptions(ctx, cfg)...)
		_, err = program.Run()
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	},
}

// programOptions reads keys from the terminal device instead of stdin when
// stdin already carries the GPS feed.
func programOptions(ctx context.Context, cfg *models.Config) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if keysFromTTY(cfg) {
		opts = append(opts, tea.WithInputTTY())
	}
	return opts
}

func keysFromTTY(cfg *models.Config) bool {
	return location.IsStdin(cfg.Location.Source)
}

func init() {
	watchCmd.Flags().String("log-file", "partnerconsole.log", "Where diagnostics go while the dashboard is open")
	rootCmd.AddCommand(watchCmd)
}
