package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

var (
	cfgFile string
	cfg     *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "partnerconsole",
	Short: "Terminal console for food delivery partners",
	Long: `partnerconsole lets a delivery partner sign in, go online, accept and
progress orders, follow incentives and export their delivery history, either
as one-shot commands or through the live "watch" dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = models.LoadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.partnerconsole.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "Delivery backend base URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-request timeout")
	rootCmd.PersistentFlags().String("session-file", "", "Where the login session is kept between runs")
	rootCmd.PersistentFlags().String("realtime", "", "Realtime transport: amqp, kafka or none")

	cobra.CheckErr(viper.BindPFlag("api_base_url", rootCmd.PersistentFlags().Lookup("api-url")))
	cobra.CheckErr(viper.BindPFlag("request_timeout", rootCmd.PersistentFlags().Lookup("timeout")))
	cobra.CheckErr(viper.BindPFlag("session_file", rootCmd.PersistentFlags().Lookup("session-file")))
	cobra.CheckErr(viper.BindPFlag("realtime.transport", rootCmd.PersistentFlags().Lookup("realtime")))
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
