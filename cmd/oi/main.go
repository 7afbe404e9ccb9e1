// Command oi reconciles OI fluctuation workbooks from the command line and runs the API server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/exporter"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/service"
)

type globalFlags struct {
	logLevel      string
	rekapSheet    string
	yoyStrategy   string
	yearThreshold int
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "oi",
		Short:         "Reconcile OI fluctuation workbooks",
		Long:          `oi reads an OI workbook (detail sheets per account plus a rekap sheet), computes MoM and YoY gaps with reasons, and writes the styled <name>_HASIL.xlsx.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetOut(out)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
	pf.StringVar(&flags.rekapSheet, "rekap", "", "Rekap sheet to use when the workbook has zero or several candidates")
	pf.StringVar(&flags.yoyStrategy, "yoy-strategy", envOr("OI_YOY_STRATEGY", string(parser.YoYByPosition)), "YoY baseline selection: position or date")
	pf.IntVar(&flags.yearThreshold, "year-threshold", 2025, "Amount columns with a year below this get the previous-year colour")

	rootCmd.AddCommand(
		newProcessCmd(flags),
		newInspectCmd(flags),
		newExportCmd(flags),
		newServeCmd(),
	)
	return rootCmd
}

// newService builds a service without run history; the CLI only analyses and renders.
func (f *globalFlags) newService(cmd *cobra.Command) (*service.Service, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), f.logLevel, false)
	if err != nil {
		return nil, err
	}

	strategy := parser.YoYStrategy(f.yoyStrategy)
	if strategy != parser.YoYByPosition && strategy != parser.YoYByDate {
		return nil, fmt.Errorf("invalid yoy strategy: %s (must be position or date)", f.yoyStrategy)
	}
	opts := parser.DefaultOptions()
	opts.YoYStrategy = strategy

	return service.NewService(nil, nil, service.Config{
		Parser:   opts,
		Exporter: exporter.Options{YearThreshold: f.yearThreshold},
	}, logger), nil
}

func newLogger(w io.Writer, level string, jsonOutput bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
