package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

var errNoSheetMatch = errors.New("no sheet matches")

func newInspectCmd(flags *globalFlags) *cobra.Command {
	var (
		sheet  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [input.xlsx]",
		Short: "Show what was detected in a workbook without writing anything",
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

			out := cmd.OutOrStdout()
			switch {
			case sheet != "":
				name, err := resolveSheet(sheet, sheetNames(res))
				if err != nil {
					return err
				}
				return writeJSON(out, sheetTable(res, name))
			case asJSON:
				return writeJSON(out, res)
			default:
				return printDetections(out, res)
			}
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Print one parsed sheet; the name may be abbreviated or misspelt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func sheetNames(res *model.Result) []string {
	names := make([]string, 0, len(res.SheetDataList)+1)
	if res.RekapSheetData != nil {
		names = append(names, res.RekapSheetData.SheetName)
	}
	for _, s := range res.SheetDataList {
		names = append(names, s.SheetName)
	}
	return names
}

// resolveSheet returns the exact (case-insensitive) match, else the closest fuzzy match.
func resolveSheet(query string, names []string) (string, error) {
	for _, n := range names {
		if strings.EqualFold(n, query) {
			return n, nil
		}
	}

	ranks := fuzzy.RankFindFold(query, names)
	if len(ranks) == 0 {
		return "", fmt.Errorf("%w %q (sheets: %s)", errNoSheetMatch, query, strings.Join(names, ", "))
	}
	sort.Sort(ranks)
	return ranks[0].Target, nil
}

func sheetTable(res *model.Result, name string) any {
	if res.RekapSheetData != nil && res.RekapSheetData.SheetName == name {
		return res.RekapSheetData
	}
	for i := range res.SheetDataList {
		if res.SheetDataList[i].SheetName == name {
			return &res.SheetDataList[i]
		}
	}
	return nil
}

func printDetections(w io.Writer, res *model.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SHEET\tSTEP\tVALUE\tCONFIDENCE\tFALLBACK\tREASON")
	for _, d := range res.Diagnostics {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%t\t%s\n", d.Sheet, d.Step, d.Value, d.Confidence, d.Fallback, d.Reason)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(tw, "\twarning\t%s\t\t\t\n", warning)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
