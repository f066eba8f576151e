package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docrenamer/internal/app"
	"github.com/joseph-ayodele/docrenamer/internal/common"
	"github.com/joseph-ayodele/docrenamer/internal/export"
	"github.com/joseph-ayodele/docrenamer/internal/ingest"
	"github.com/joseph-ayodele/docrenamer/internal/server"
)

const defaultConfigPath = "config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "docrenamer",
		Short:         "Watch a directory and rename documents after their content",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), configPath, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML settings document")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the poll and retry loops until interrupted (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runWatch(cmd.Context(), configPath, cmd.ErrOrStderr())
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the settings document and print the resolved setup",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runCheck(configPath, cmd.OutOrStdout())
			},
		},
		newReportCmd(&configPath),
	)
	return root
}

func newReportCmd(configPath *string) *cobra.Command {
	var out, fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the processing journal as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDate("from", fromStr)
			if err != nil {
				return err
			}
			to, err := parseDate("to", toStr)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), *configPath, out, from, to, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "journal.xlsx", "output XLSX file path")
	cmd.Flags().StringVar(&fromStr, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "to date YYYY-MM-DD")
	return cmd
}

// runWatch loads the config once and keeps the loops running under the supervisor.
func runWatch(ctx context.Context, configPath string, logOut io.Writer) error {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger := common.NewLogger(cfg.Logging, logOut)

	var opts []app.Option
	if cfg.Health.ListenAddr != "" {
		hs := server.NewHealthServer(logger)
		opts = append(opts, app.WithStatus(hs))
		go func() {
			if err := hs.ListenAndServe(ctx, cfg.Health.ListenAddr); err != nil {
				logger.Error("health endpoint stopped", "error", err)
			}
		}()
	}

	logger.Info("starting docrenamer", "config", configPath, "watch_dir", cfg.WatchDirectory)
	return app.New(cfg, logger, opts...).Supervise(ctx)
}

func runCheck(configPath string, w io.Writer) error {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	dirs := ingest.NewDirs(cfg.WatchDirectory)
	reg := ingest.NewRegistry(cfg.SupportedExtensions)

	fmt.Fprintf(w, "config ok: %s\n", configPath)
	fmt.Fprintf(w, "watch:      %s\n", dirs.Watch)
	fmt.Fprintf(w, "processed:  %s\n", dirs.Processed)
	fmt.Fprintf(w, "error:      %s\n", dirs.Error)
	fmt.Fprintf(w, "docling:    %s (format=%s)\n", cfg.Docling.BaseURL(), cfg.Docling.Format)
	fmt.Fprintf(w, "ollama:     %s (model=%s)\n", cfg.Ollama.BaseURL(), cfg.Ollama.Model)
	fmt.Fprintf(w, "retry:      every %s, max %d attempts\n", cfg.RetryInterval(), cfg.Retry.MaxAttempts)
	fmt.Fprintf(w, "polling:    every %s\n", cfg.PollingInterval())
	fmt.Fprintln(w, "extensions:")
	for _, ext := range reg.Extensions() {
		fmt.Fprintf(w, "  %-10s %s\n", ext, reg.MimeType("x"+ext))
	}
	if _, err := os.Stat(dirs.Watch); err != nil {
		fmt.Fprintf(w, "warning: watch directory not accessible: %v\n", err)
	}
	return nil
}

func runReport(ctx context.Context, configPath, out string, from, to *time.Time, logOut io.Writer) error {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Journal.DSN) == "" {
		return common.NewAppError(common.CodeConfig, "journal.dsn is not configured", common.ErrInvalidInput)
	}
	logger := common.NewLogger(cfg.Logging, logOut)

	j, closeFn, err := app.OpenJournal(ctx, cfg.Journal, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := export.NewService(j, logger).ExportEventsXLSX(ctx, from, to)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info("journal exported", "out", out, "bytes", len(data))
	return nil
}

func parseDate(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date format, use YYYY-MM-DD: %w", name, err)
	}
	return &t, nil
}
