// Package cli provides the command-line interface of the feature store.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlfs/internal/cli/config"
)

// Version information (set at build time).
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "sqlfs",
		Short: "sqlfs - SQL feature store",
		Long: `sqlfs maps application schema feature types onto relational tables.

It derives the DDL of a mapping for several SQL dialects, sets up or
exports the tables, and reads features back as JSON.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx := config.WithConfig(cmd.Context(), cfg)
			cmd.SetContext(config.WithLogger(ctx, logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlfs.yaml)")
	rootCmd.PersistentFlags().StringP("mapping", "m", "", "Path to the YAML mapping file")
	rootCmd.PersistentFlags().StringP("dialect", "d", "", "SQL dialect (postgis|oracle|mssql|mysql|sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "Data source name of the database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Dialects, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewDDLCommand())
	rootCmd.AddCommand(NewSetupCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewQueryCommand())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
