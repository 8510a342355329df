package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecord(cmd *cobra.Command, opts *RootOptions, rec *ledgerapi.Record) error {
	if opts.Format == "json" {
		return writeJSON(cmd, rec)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uid:      %s\nrate:     %g\nbalance:  %.15g\nmining:   %t\n",
		rec.UID, rec.Rate, rec.Balance, rec.MiningActive)
	return nil
}

func printReport(cmd *cobra.Command, opts *RootOptions, report *ledgerapi.SweepReport) error {
	if opts.Format == "json" {
		return writeJSON(cmd, report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sweep %s: visited %d, reset %d, skipped %d, failed %d\n",
		report.ID, report.Visited, report.Reset, report.Skipped, report.Failed)
	return nil
}
