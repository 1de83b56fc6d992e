package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqlfs/compiler/ddl"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/internal/cli/config"
)

// oracleIdentifierLength is the identifier limit of Oracle releases
// before 12.2.
const oracleIdentifierLength = 30

// NewDDLCommand creates the ddl command.
func NewDDLCommand() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the DDL of a mapping",
		Long: `Derive the tables of a mapping and print their CREATE statements.

Several dialects may be given; their statements are compiled concurrently
and printed in the order the dialects were given.`,
		Example: `  sqlfs ddl -m roads.yaml --dialects postgis,oracle`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)
			ms, err := loadMapping(cfg)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				names = []string{cfg.Dialect}
			}

			tables, err := ddl.BuildTables(ms)
			if err != nil {
				return err
			}
			var opts []sqlschema.ValidateOption
			for _, name := range names {
				if name == "oracle" {
					opts = append(opts, sqlschema.MaxIdentifierLength(oracleIdentifierLength))
				}
			}
			result := sqlschema.ValidateTables(tables, opts...)
			for _, w := range result.Warnings {
				logger.WarnContext(ctx, "table validation", "finding", w.Error())
			}
			if result.HasErrors() {
				return fmt.Errorf("invalid tables:\n%s", result.String())
			}

			entries := make([]dialectEntry, len(names))
			for i, name := range names {
				if entries[i], err = lookupDialect(name); err != nil {
					return err
				}
			}
			out := make([][]string, len(names))
			g, _ := errgroup.WithContext(ctx)
			for i, name := range names {
				e := entries[i]
				g.Go(func() error {
					stmts, err := ddl.Compile(ms, e.newDialect())
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					out[i] = stmts
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, name := range names {
				if len(names) > 1 {
					_, _ = fmt.Fprintf(w, "-- %s\n", name)
				}
				for _, stmt := range out[i] {
					_, _ = fmt.Fprintf(w, "%s;\n", strings.TrimSpace(stmt))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&names, "dialects", nil, "Comma-separated dialects (default: the configured dialect)")
	return cmd
}
