// Package cmd implements the form-scanner command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/form-scanner/cmd/classify"
	"github.com/jonesrussell/north-cloud/form-scanner/cmd/common"
	"github.com/jonesrussell/north-cloud/form-scanner/cmd/httpd"
	"github.com/jonesrussell/north-cloud/form-scanner/cmd/scan"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "form-scanner",
	Short: "Find fillable forms and PDFs on web pages",
	Long: `form-scanner finds PDF and form links on a page, groups language
variants, checks that implicit links really lead to documents and can follow
pagination to neighbouring pages.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("store", "", "scan store backend: memory or redis")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "form-scanner version %s\n", Version)
		},
	})

	rootCmd.AddCommand(scan.Command())
	rootCmd.AddCommand(classify.Command())
	rootCmd.AddCommand(httpd.Command(Version))
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	_ = godotenv.Load()

	if err := bindFlags(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func bindFlags() error {
	flags := rootCmd.PersistentFlags()
	bindings := map[string]string{
		common.KeyConfig:       "config",
		common.KeyDebug:        "debug",
		common.KeyLogLevel:     "log-level",
		common.KeyStoreBackend: "store",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", flag, err)
		}
	}

	if err := viper.BindEnv(common.KeyLogLevel, "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	return nil
}
