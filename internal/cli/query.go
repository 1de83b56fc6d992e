package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/compiler/query"
	"github.com/syssam/sqlfs/internal/cli/config"
	"github.com/syssam/sqlfs/materialize"
	"github.com/syssam/sqlfs/store"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		typeName string
		ids      []string
		where    string
		indent   bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the features of a feature type as JSON",
		Long: `Query the features of a feature type and print one JSON document per
feature. Required values that cannot be materialized are reported as
warnings on stderr.`,
		Example: `  sqlfs query -m roads.yaml -d sqlite --dsn file:roads.db --type app:Road --id ROAD_1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)
			ms, err := loadMapping(cfg)
			if err != nil {
				return err
			}
			name, err := featureType(ms, typeName)
			if err != nil {
				return err
			}
			d, drv, err := openDriver(ctx, cfg)
			if err != nil {
				return err
			}
			defer drv.Close()

			st, err := store.New(ms, d, drv,
				store.WithLogger(logger),
				store.WithCacheSize(cfg.CacheSize),
				store.WithBuilderOptions(
					materialize.WithNullEscalation(cfg.NullEscalation),
					materialize.WithWarningHook(func(w *sqlfs.SchemaViolationWarning) {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
					}),
				),
			)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			if len(ids) > 0 {
				fs, errs, err := st.GetMany(ctx, name, ids)
				if err != nil {
					return err
				}
				for i, f := range fs {
					if errs[i] != nil {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", errs[i])
						continue
					}
					if err := enc.Encode(f); err != nil {
						return err
					}
				}
				return nil
			}

			var opts []query.Option
			if where != "" {
				opts = append(opts, query.WithWhere(where))
			}
			it, err := st.Query(ctx, name, opts...)
			if err != nil {
				return err
			}
			var n int
			for it.Next() {
				if err := enc.Encode(it.Feature()); err != nil {
					_ = it.Close()
					return err
				}
				n++
			}
			if err := it.Err(); err != nil {
				_ = it.Close()
				return err
			}
			logger.DebugContext(ctx, "query finished", "features", n, "warnings", len(it.Warnings()), "stats", drv.QueryStats().Stats().String())
			return it.Close()
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "Feature type, as prefix:local or {namespace}local")
	cmd.Flags().StringArrayVar(&ids, "id", nil, "Feature id to fetch (repeatable)")
	cmd.Flags().StringVar(&where, "where", "", "SQL condition on the root table (alias X1)")
	cmd.Flags().BoolVar(&indent, "indent", false, "Indent the JSON output")
	cmd.Flags().Int("cache-size", 0, "Feature cache size per query")
	cmd.Flags().Bool("null-escalation", true, "Escalate missing required values to the enclosing element")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
