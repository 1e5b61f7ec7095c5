package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/a3tai/doc-extractor/internal/batch"
	"github.com/a3tai/doc-extractor/internal/config"
	"github.com/a3tai/doc-extractor/internal/document"
	"github.com/a3tai/doc-extractor/internal/extraction"
	"github.com/a3tai/doc-extractor/internal/logger"
	"github.com/a3tai/doc-extractor/internal/mcp"
	"github.com/a3tai/doc-extractor/internal/metrics"
	"github.com/a3tai/doc-extractor/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by a single command invocation.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "doc-extractor",
		Short:        "Extract keyword values and personal information from PDF, DOCX and DOC files",
		SilenceUsage: true,
	}
	config.BindFlags(root.PersistentFlags(), config.DefaultConfig())

	root.AddCommand(
		newExtractCmd(),
		newBatchCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration from the command's flags and the environment
// and builds the logger.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if version != "dev" {
		cfg.Version = version
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	if cfg.IsDebug() {
		log.Debug().Str("config", cfg.String()).Msg("Configuration loaded")
	}

	return &app{cfg: cfg, log: log, metrics: metrics.NewMetrics(), now: time.Now}, nil
}

// runBatch runs docs through the coordinator, teeing logs into a per-run
// processing log when a log directory is configured.
func (a *app) runBatch(cmd *cobra.Command, docs []document.Document, progress batch.ProgressFunc) (*batch.Result, error) {
	runID := uuid.NewString()
	log := a.log
	if a.cfg.LogDirectory != "" {
		runLog, err := logger.NewRunLog(a.log, a.cfg.LogDirectory, runID)
		if err != nil {
			return nil, err
		}
		defer runLog.Close()
		log = runLog.Logger
		log.Debug().Str("path", runLog.Path).Msg("Processing log opened")
	}

	registry := document.NewDefaultRegistry(a.cfg.MaxFileSize)
	engine := extraction.NewEngine(extraction.WithLogger(log))
	opts := []batch.Option{
		batch.WithLogger(log),
		batch.WithMetrics(a.metrics),
		batch.WithRunID(func() string { return runID }),
	}
	if progress != nil {
		opts = append(opts, batch.WithProgress(progress))
	}

	// An interrupt stops the batch between documents; the partial result is
	// still reported.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := batch.NewCoordinator(registry, engine, opts...).Run(ctx, docs, a.cfg.Keywords)

	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (a *app) write(cmd *cobra.Command, name string, data []byte) error {
	path := filepath.Join(a.cfg.OutputDirectory, name)
	if err := report.WriteFile(path, data, a.cfg.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Output written to: %s\n", path)
	return nil
}

func newExtractCmd() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract from a single document and write a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			doc, err := document.FromPath(args[0])
			if err != nil {
				return err
			}

			result, err := a.runBatch(cmd, []document.Document{doc}, nil)
			if err != nil {
				return err
			}
			if len(result.Results) == 0 {
				return errors.New(strings.Join(result.Warnings, "; "))
			}

			res := result.Results[0]
			now := a.now()
			text := report.NewTableFormatter().RenderReport(res, result.Keywords, now)
			if toStdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			return a.write(cmd, report.ReportFilename(res.PersonalInfo, now), []byte(text))
		},
	}
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the report instead of writing a file")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Extract from several documents into one table",
		Long: "Processes the given files in argument order, or every supported document in --dir " +
			"in name order when no files are given. Writes one row per document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			docs, err := selectDocuments(a.cfg.DocumentDirectory, args)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("no supported documents found in %s", a.cfg.DocumentDirectory)
			}

			stderr := cmd.ErrOrStderr()
			result, err := a.runBatch(cmd, docs, func(index, total int, name string) {
				fmt.Fprintf(stderr, "[%d/%d] %s\n", index, total, name)
			})
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(stderr, "Warning: %s\n", w)
			}

			now := a.now()
			if a.cfg.OutputFormat == config.FormatXLSX {
				data, err := report.RenderXLSX(result)
				if err != nil {
					return err
				}
				return a.write(cmd, report.BatchFilename(now, "xlsx"), data)
			}

			table := report.NewTableFormatter().Render(result)
			if toStdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), table)
				return err
			}
			return a.write(cmd, report.BatchFilename(now, "txt"), []byte(table))
		},
	}
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the text table instead of writing a file")
	return cmd
}

// selectDocuments keeps the argument order when files are given and falls
// back to discovering dir. Unsupported files are kept so the batch reports
// them as warnings.
func selectDocuments(dir string, args []string) ([]document.Document, error) {
	if len(args) == 0 {
		return document.Discover(dir, "")
	}

	docs := make([]document.Document, 0, len(args))
	for _, arg := range args {
		docs = append(docs, document.Reference(arg))
	}
	return docs, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve extraction tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			registry := document.NewDefaultRegistry(a.cfg.MaxFileSize)
			server, err := mcp.NewServer(a.cfg, registry, mcp.WithLogger(a.log), mcp.WithMetrics(a.metrics))
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			// The parent process controls our lifecycle; stop on stdin EOF or a signal.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd)
		},
	}
}

// printVersion prints version information
func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Document Extractor\n")
	fmt.Fprintf(out, "Version: %s\n", version)
	fmt.Fprintf(out, "Build Time: %s\n", buildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(out, "Built with: %s\n", runtime.Version())
}
