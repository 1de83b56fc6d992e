package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlfs/internal/cli/config"
	"github.com/syssam/sqlfs/store"
)

// NewSetupCommand creates the setup command.
func NewSetupCommand() *cobra.Command {
	var (
		stmts     []string
		noDerived bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the tables of a mapping",
		Long: `Create the tables derived from a mapping, followed by additional
statements, in one transaction.

Nothing is executed if the test query reports the tables as present: the
--test-sql query must return one boolean value; without it the table of the
first feature type is probed.`,
		Example: `  sqlfs setup -m roads.yaml -d sqlite --dsn file:roads.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)
			ms, err := loadMapping(cfg)
			if err != nil {
				return err
			}
			d, drv, err := openDriver(ctx, cfg)
			if err != nil {
				return err
			}
			defer drv.Close()

			st, err := store.New(ms, d, drv, store.WithLogger(logger))
			if err != nil {
				return err
			}
			done, err := st.Setup(ctx, store.TableSetup{
				TestSQL:      cfg.TestSQL,
				DeriveTables: !noDerived,
				SQL:          stmts,
			})
			if err != nil {
				return err
			}
			if done {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tables created")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tables already set up")
			}
			logger.DebugContext(ctx, "setup statistics", "stats", drv.QueryStats().Stats().String())
			return nil
		},
	}
	cmd.Flags().String("test-sql", "", "Query telling whether the tables exist")
	cmd.Flags().StringArrayVar(&stmts, "sql", nil, "Additional statement to execute (repeatable)")
	cmd.Flags().BoolVar(&noDerived, "no-derived", false, "Do not create the tables derived from the mapping")
	return cmd
}
