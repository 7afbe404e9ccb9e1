package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export [result.json]",
		Short: "Render a Result JSON (as printed by inspect --json) to <name>_HASIL.xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			var res model.Result
			if err := json.Unmarshal(raw, &res); err != nil {
				return fmt.Errorf("invalid result json: %w", err)
			}

			svc, err := flags.newService(cmd)
			if err != nil {
				return err
			}
			data, name, err := svc.Export(cmd.Context(), &res)
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = filepath.Dir(args[0])
			}
			outPath := filepath.Join(outputDir, name)
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the result workbook (default: next to the input)")
	return cmd
}
