// Package cli implements the csvview command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vegasq/csvview/internal/config"
	"github.com/vegasq/csvview/internal/logging"
	"github.com/vegasq/csvview/output"
	"github.com/vegasq/csvview/reader"
	"github.com/vegasq/csvview/store"
	"github.com/vegasq/csvview/table"
)

// app holds the resolved global state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// global flags
	configPath string
	logLevel   string
	format     string
	rows       int
	delimiter  string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func()
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd, a := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	a.closeLog()
	if err != nil {
		msg := strings.ReplaceAll(strings.TrimSpace(err.Error()), "\n", "; ")
		fmt.Fprintf(stderr, "Error: %s\n", msg)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{stdout: stdout, stderr: stderr, closeLog: func() {}}

	rootCmd := &cobra.Command{
		Use:   "csvview",
		Short: "Explore CSV, TSV and Parquet files",
		Long: `csvview previews, filters, sorts, joins, queries and charts tabular files.

Each file is bound under its base name, and the first file is also bound as
df, so "SELECT * FROM df LIMIT 5" works on any single file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&a.format, "format", "f", "", "output format: "+strings.Join(output.Formats, ", ")+" (default table on a terminal, jsonl otherwise)")
	flags.IntVarP(&a.rows, "rows", "n", 0, "maximum rows to print (0 prints all; preview defaults to 10)")
	flags.StringVarP(&a.delimiter, "delimiter", "d", "", "field delimiter (default by extension: tab for .tsv, comma otherwise)")

	rootCmd.AddCommand(
		newPreviewCmd(a),
		newSchemaCmd(a),
		newFilterCmd(a),
		newSortCmd(a),
		newJoinCmd(a),
		newQueryCmd(a),
		newChartCmd(a),
		newServeCmd(a),
	)
	return rootCmd, a
}

// setup applies precedence flag > env > file > default and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	levelSet := cmd.Flags().Changed("log-level")
	if levelSet {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("delimiter") {
		cfg.Delimiter = a.delimiter
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if a.rows < 0 {
		return fmt.Errorf("--rows must be non-negative, got %d", a.rows)
	}
	if a.format == "" {
		a.format = defaultFormat(a.stdout)
	}
	if !slices.Contains(output.Formats, strings.ToLower(a.format)) {
		return fmt.Errorf("%w %q (supported: %s)", output.ErrUnknownFormat, a.format, strings.Join(output.Formats, ", "))
	}

	// One-shot commands stay quiet unless asked; serve logs at the configured level.
	level := cfg.SlogLevel()
	if cmd.Name() != "serve" && !levelSet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	a.logger, a.closeLog = logging.Setup(a.stderr, logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		SeqURL: cfg.SeqURL,
	})
	a.cfg = cfg
	return nil
}

// defaultFormat picks the table format for terminals and jsonl for pipes.
func defaultFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return output.FormatTable
	}
	return output.FormatJSONL
}

func (a *app) newStore() *store.Store {
	return store.New(
		store.WithReaderOptions(a.cfg.ReaderOptions()),
		store.WithLogger(a.logger),
	)
}

// loadFiles expands globs and loads every file. Files that fail are
// reported on stderr and left unbound.
func (a *app) loadFiles(ctx context.Context, args []string) (*store.Store, []store.LoadResult, error) {
	paths, err := reader.ExpandPaths(args)
	if err != nil {
		return nil, nil, err
	}
	st := a.newStore()
	results, err := st.LoadFiles(ctx, paths...)
	if err != nil {
		return nil, nil, err
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.stderr, "Warning: %v\n", res.Err)
		}
	}
	return st, results, nil
}

// loadTable loads the single file a command operates on.
func (a *app) loadTable(path string) (*table.Table, error) {
	return a.newStore().LoadFile(path)
}

// write prints t in the selected format, cut to --rows when set.
func (a *app) write(t *table.Table) error {
	if a.rows > 0 {
		t = t.Head(a.rows)
	}
	formatter, err := output.New(a.format, a.stdout)
	if err != nil {
		return err
	}
	return formatter.Format(t)
}
