// Package importer implements the import command.
package importer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/internal/cmd/constants"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/snapshot"
)

// Flags holds the import command flags.
type Flags struct {
	Threshold float64
	Review    string
	Decisions string
	PageSize  int
	Details   bool
}

// NewCommand creates the import command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "import <file|url|->",
		GroupID: "core",
		Short:   "Merge a snapshot into the collection",
		Long: `Import merges a snapshot into the local collection.

Records whose content matches an existing entity are merged into it.
Records that are at least --threshold similar to an existing entity are
near-duplicates and need a decision: confirm merges the record into its
match, reject imports it as a new entity. Nothing is written until every
near-duplicate is decided.

Review modes:
  prompt       - ask on the terminal, one page at a time (default)
  abort        - give up when anything needs review
  confirm-all  - merge every near-duplicate into its match
  reject-all   - import every near-duplicate as new

The snapshot is read from a file, from an http(s) URL, or from stdin ("-").`,
		Example: `  argmap import backup.json                     # Import, reviewing interactively
  argmap import backup.yaml --review reject-all # Keep every near-duplicate
  argmap import https://example.com/debate.json --threshold 0.95
  argmap import - --decisions decisions.yaml < backup.json
  argmap import backup.json -o json --details   # Machine-readable summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			return run(cmd, app, flags, args[0])
		},
	}

	cmd.Flags().Float64VarP(&flags.Threshold, "threshold", "t", app.SimilarityThreshold(),
		"similarity at or above which a record is a near-duplicate (0-1)")
	cmd.Flags().StringVar(&flags.Review, "review", constants.ReviewPrompt,
		"review mode: "+strings.Join(constants.ReviewModes, ", "))
	cmd.Flags().StringVar(&flags.Decisions, "decisions", "",
		"file with review decisions (JSON or YAML list of kind, snapshotId, action)")
	cmd.Flags().IntVar(&flags.PageSize, "page-size", app.ReviewPageSize(),
		"review items shown per page")
	cmd.Flags().BoolVar(&flags.Details, "details", false,
		"show the outcome of every record")
	cmd.MarkFlagsMutuallyExclusive("review", "decisions")

	_ = cmd.RegisterFlagCompletionFunc("review", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return constants.ReviewModes, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (f *Flags) validate() error {
	switch {
	case f.Threshold < 0 || f.Threshold > 1:
		return errors.NewValidationError("threshold", f.Threshold, "must be within [0, 1]")
	case !slices.Contains(constants.ReviewModes, f.Review):
		return errors.NewValidationError("review", f.Review, "must be one of "+strings.Join(constants.ReviewModes, ", "))
	case f.PageSize < 1:
		return errors.NewValidationError("page-size", f.PageSize, "must be positive")
	}
	return nil
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, location string) error {
	ctx := cmd.Context()
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	// Decisions are read up front so a bad file fails before the import
	var decisions []reconcile.Decision
	if flags.Decisions != "" {
		if decisions, err = readDecisions(flags.Decisions); err != nil {
			return err
		}
	}

	rc, _, err := snapshot.Open(ctx, location)
	if err != nil {
		return err
	}
	defer rc.Close()

	logger.Debug().Str("location", location).Float64("threshold", flags.Threshold).Msg("Importing snapshot")

	summary, err := client.ImportSnapshot(ctx, rc, flags.Threshold)
	if err != nil {
		if summary != nil {
			_ = printSummary(cmd, app, summary, flags.Details)
		}
		return fmt.Errorf("import %s: %w", location, err)
	}

	if summary.NeedsReview() {
		summary, err = review(cmd, client, summary, flags, decisions)
		if err != nil {
			return err
		}
	}

	return printSummary(cmd, app, summary, flags.Details)
}
