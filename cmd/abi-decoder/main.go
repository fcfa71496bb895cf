package main

import (
	"fmt"
	"os"

	"abi-decoder/internal/infrastructure/config"
	"abi-decoder/internal/infrastructure/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "abi-decoder"

var (
	configFile string
	logLevel   string

	cfg       *config.Config
	appLogger *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Decode contract calls and event logs using registered ABIs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadWith(viper.New(), configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logLevel != "" {
			loaded.App.LogLevel = logLevel
		}
		cfg = loaded

		appLogger, err = logger.NewLogger(cfg.App.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newQueryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}
