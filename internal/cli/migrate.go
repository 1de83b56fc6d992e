package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlfs/compiler/ddl"
	"github.com/syssam/sqlfs/internal/cli/config"
	"github.com/syssam/sqlfs/migrate"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "migrate [name]",
		Short: "Write the DDL of a mapping as a migration",
		Long: `Write the DDL of a mapping as a versioned migration into a migration
directory, in the file layout of the given migration tool.

Supported formats: ` + strings.Join(migrate.Formats, ", ") + `.`,
		Example: `  sqlfs migrate -m roads.yaml -d postgis --migrations-dir db --migration-format goose init`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			name := "init"
			if len(args) > 0 {
				name = args[0]
			}
			ms, err := loadMapping(cfg)
			if err != nil {
				return err
			}
			e, err := lookupDialect(cfg.Dialect)
			if err != nil {
				return err
			}
			stmts, err := ddl.Compile(ms, e.newDialect())
			if err != nil {
				return err
			}
			dir, err := migrate.OpenDir(cfg.MigrationFormat, cfg.MigrationsDir)
			if err != nil {
				return err
			}
			var opts []migrate.Option
			if version != "" {
				opts = append(opts, migrate.WithVersion(version))
			}
			if err := migrate.Write(ctx, dir, name, stmts, opts...); err != nil {
				return err
			}
			config.GetLogger(ctx).InfoContext(ctx, "migration written", "dir", cfg.MigrationsDir, "format", cfg.MigrationFormat, "statements", len(stmts))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote migration %s to %s\n", name, cfg.MigrationsDir)
			return nil
		},
	}
	cmd.Flags().String("migrations-dir", "", "Migration directory (default: migrations)")
	cmd.Flags().String("migration-format", "", "Migration format (default: atlas)")
	cmd.Flags().StringVar(&version, "migration-version", "", "Migration version (default: current time)")
	return cmd
}
