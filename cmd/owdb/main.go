package main

import (
	"database/sql"
	"fmt"
	owdb "github.com/qbixus/owdb-go"
	"github.com/qbixus/owdb-go/internal/config"
	"github.com/qbixus/owdb-go/internal/plan"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "owdb",
		Short:         "Run nested transaction plans against a database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "run PLAN",
		Short: "Execute a YAML plan and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath, overrides, verbose)
			if err != nil {
				return err
			}
			log, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			p, err := plan.Load(args[0])
			if err != nil {
				return err
			}
			db, err := sql.Open(cfg.Driver, cfg.DSN)
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Driver, err)
			}
			defer func() { _ = db.Close() }()

			log.Debug("running plan", zap.String("plan", args[0]), zap.String("driver", cfg.Driver),
				zap.String("isolation", cfg.Isolation))
			report, err := plan.Run(cmd.Context(), db, cfg.DSN, owdb.DriverConnector(cfg.Driver), p,
				owdb.WithLogger(log), owdb.WithDefaultIsolation(cfg.IsolationLevel()))
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (YAML)")
	cmd.Flags().StringVar(&overrides.Driver, "driver", config.DefaultDriver, "database/sql driver name")
	cmd.Flags().StringVar(&overrides.DSN, "dsn", "", "data source name")
	cmd.Flags().StringVar(&overrides.Isolation, "isolation", "", "default isolation level: read-committed|serializable|...")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

// loadConfig читает файл настроек, если он задан, и поверх него применяет явно заданные флаги.
// Значения по умолчанию подставляются в конце, поэтому изоляция следует итоговому драйверу.
func loadConfig(cmd *cobra.Command, path string, overrides config.Config, verbose bool) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.Read(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("driver") || cfg.Driver == "" {
		cfg.Driver = overrides.Driver
	}
	if flags.Changed("dsn") {
		cfg.DSN = overrides.DSN
	}
	if flags.Changed("isolation") {
		cfg.Isolation = overrides.Isolation
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return config.New(cfg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the owdb version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "owdb %s\n", version)
			return nil
		},
	}
}
