package importer

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/internal/cmd/emoji"
	"github.com/agentstation/argmap/internal/cmd/output"
	"github.com/agentstation/argmap/internal/cmd/table"
	"github.com/agentstation/argmap/pkg/reconcile"
)

// printSummary writes the import summary. JSON and YAML carry the whole
// summary; per-record outcomes are included only with --details.
func printSummary(cmd *cobra.Command, app appcontext.Interface, summary *reconcile.Summary, details bool) error {
	out := cmd.OutOrStdout()
	format := output.DetectFormat(app.OutputFormat())
	formatter := output.NewFormatter(format)

	if !format.IsTable() {
		s := *summary
		if !details {
			s.Records = nil
		}
		return formatter.Format(out, &s)
	}

	fmt.Fprintf(out, "%s %s\n", icon(summary), summary)
	if err := formatter.Format(out, table.KindsToTableData(summary)); err != nil {
		return err
	}

	if len(summary.ItemsForReview) > 0 {
		fmt.Fprintf(out, "\nItems for review (%d):\n", len(summary.ItemsForReview))
		if err := formatter.Format(out, table.ReviewToTableData(summary.ItemsForReview, 0)); err != nil {
			return err
		}
	}

	if len(summary.ErrorMessages) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(summary.ErrorMessages))
		if err := formatter.Format(out, table.ErrorsToTableData(summary.ErrorMessages)); err != nil {
			return err
		}
	}

	if (details || format == output.FormatWide) && len(summary.Records) > 0 {
		fmt.Fprintf(out, "\nRecords (%d):\n", len(summary.Records))
		if err := formatter.Format(out, table.RecordsToTableData(summary.Records)); err != nil {
			return err
		}
	}
	return nil
}

func icon(summary *reconcile.Summary) string {
	switch {
	case !summary.Success:
		return emoji.Error
	case summary.NeedsReview(), summary.HasErrors():
		return emoji.Warning
	default:
		return emoji.Success
	}
}
