package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/service"
	"github.com/FACorreiaa/sig-activa/pkg/money"
)

func newProcessCmd(flags *globalFlags) *cobra.Command {
	var (
		outputDir string
		writeCSV  bool
	)

	cmd := &cobra.Command{
		Use:   "process [input.xlsx]",
		Short: "Analyse a workbook and write <name>_HASIL.xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.newService(cmd)
			if err != nil {
				return err
			}
			res, err := analyzeFile(cmd.Context(), svc, args[0], flags.rekapSheet)
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = filepath.Dir(args[0])
			}

			data, name, err := svc.Export(cmd.Context(), res)
			if err != nil {
				return err
			}
			outPath := filepath.Join(outputDir, name)
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			if writeCSV {
				csvData, csvName, err := svc.ExportCSV(cmd.Context(), res)
				if err != nil {
					return err
				}
				if err := os.WriteFile(filepath.Join(outputDir, csvName), csvData, 0o644); err != nil {
					return fmt.Errorf("failed to write csv: %w", err)
				}
			}

			return printSummary(cmd.OutOrStdout(), res, outPath)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the result workbook (default: next to the input)")
	cmd.Flags().BoolVar(&writeCSV, "csv", false, "Also write the rekap rows as <name>_HASIL.csv")
	return cmd
}

func analyzeFile(ctx context.Context, svc *service.Service, path, rekapSheet string) (*model.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return svc.Analyze(ctx, service.Upload{
		FileName:   filepath.Base(path),
		Data:       data,
		RekapSheet: rekapSheet,
	})
}

func printSummary(w io.Writer, res *model.Result, outPath string) error {
	run := service.Summarize(res)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "output\t%s\n", outPath)
	fmt.Fprintf(tw, "detail sheets\t%d\n", run.DetailSheets)
	if run.RekapSheet == "" {
		fmt.Fprintf(tw, "rekap sheet\t(none)\n")
	} else {
		fmt.Fprintf(tw, "rekap sheet\t%s\n", run.RekapSheet)
		fmt.Fprintf(tw, "rows\t%d category, %d subtotal, %d detail, %d empty\n",
			run.CategoryRows, run.SubtotalRows, run.DetailRows, run.EmptyRows)
		fmt.Fprintf(tw, "MoM current total\t%s\n", money.New(run.MoMCurrentMinor, money.IDR).Display())
		fmt.Fprintf(tw, "MoM previous total\t%s\n", money.New(run.MoMPreviousMinor, money.IDR).Display())
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(tw, "warning\t%s\n", warning)
	}
	return tw.Flush()
}
