package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/agentstation/argmap"
	"github.com/agentstation/argmap/internal/cmd/constants"
	"github.com/agentstation/argmap/internal/cmd/output"
	"github.com/agentstation/argmap/internal/cmd/table"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/snapshot"
)

// errStop is returned by the prompt when the user aborts the review.
var errStop = errors.New("review stopped")

// isTerminal reports whether cmd reads from an interactive terminal.
var isTerminal = func(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// review settles the near-duplicates of a session awaiting review. It
// returns the final summary, or ErrAborted once the session is abandoned.
func review(cmd *cobra.Command, client argmap.Client, summary *reconcile.Summary, flags *Flags, decisions []reconcile.Decision) (*reconcile.Summary, error) {
	ctx := cmd.Context()
	pending := summary.Pending()

	switch {
	case flags.Decisions != "":
		return confirm(ctx, client, decisions)
	case flags.Review == constants.ReviewConfirmAll:
		return confirm(ctx, client, decideAll(nil, pending, reconcile.Confirm))
	case flags.Review == constants.ReviewRejectAll:
		return confirm(ctx, client, decideAll(nil, pending, reconcile.Reject))
	case flags.Review == constants.ReviewPrompt && isTerminal(cmd):
		decided, err := prompt(cmd, pending, flags.PageSize)
		if err != nil {
			return nil, abort(ctx, client, len(pending), "")
		}
		return confirm(ctx, client, decided)
	default:
		_ = output.NewFormatter(output.FormatTable).Format(cmd.ErrOrStderr(), table.ReviewToTableData(pending, 0))
		hint := "; rerun with --review confirm-all, --review reject-all or --decisions <file>"
		return nil, abort(ctx, client, len(pending), hint)
	}
}

// confirm submits decisions. A session that rejects them is abandoned.
func confirm(ctx context.Context, client argmap.Client, decisions []reconcile.Decision) (*reconcile.Summary, error) {
	summary, err := client.ConfirmReviewDecisions(ctx, decisions)
	if errors.IsValidationError(err) {
		if abortErr := client.AbortReview(ctx); abortErr != nil {
			return nil, fmt.Errorf("%w (abort failed: %v)", err, abortErr)
		}
		return nil, err
	}
	return summary, err
}

func abort(ctx context.Context, client argmap.Client, pending int, hint string) error {
	if err := client.AbortReview(ctx); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d near-duplicates need review%s", reconcile.ErrAborted, pending, hint)
}

func decideAll(decisions []reconcile.Decision, items []reconcile.ReviewItem, action reconcile.Action) []reconcile.Decision {
	for _, item := range items {
		decisions = append(decisions, item.Decide(action))
	}
	return decisions
}

// prompt asks for a decision on every pending item, one page at a time.
func prompt(cmd *cobra.Command, pending []reconcile.ReviewItem, pageSize int) ([]reconcile.Decision, error) {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.ErrOrStderr()
	formatter := output.NewFormatter(output.FormatTable)

	pages := (len(pending) + pageSize - 1) / pageSize
	decisions := make([]reconcile.Decision, 0, len(pending))
	for page := 0; page < pages; page++ {
		start := page * pageSize
		end := min(start+pageSize, len(pending))
		items := pending[start:end]

		fmt.Fprintf(out, "\nNear-duplicates %d-%d of %d (page %d/%d)\n", start+1, end, len(pending), page+1, pages)
		if err := formatter.Format(out, table.ReviewToTableData(items, start)); err != nil {
			return nil, err
		}

		answer, err := ask(in, out, "[c]onfirm page, [r]eject page, [i]tem by item, [a]bort: ", "cria")
		if err != nil {
			return nil, err
		}
		switch answer {
		case 'c':
			decisions = decideAll(decisions, items, reconcile.Confirm)
		case 'r':
			decisions = decideAll(decisions, items, reconcile.Reject)
		case 'i':
			for i, item := range items {
				question := fmt.Sprintf("%d. %s %q ~ %q (%.2f) [c]onfirm, [r]eject, [a]bort: ",
					start+i+1, item.Kind, table.Truncate(item.Text, 40), table.Truncate(item.MatchText, 40), item.Score)
				answer, err := ask(in, out, question, "cra")
				if err != nil {
					return nil, err
				}
				switch answer {
				case 'c':
					decisions = append(decisions, item.Decide(reconcile.Confirm))
				case 'r':
					decisions = append(decisions, item.Decide(reconcile.Reject))
				default:
					return nil, errStop
				}
			}
		default:
			return nil, errStop
		}
	}
	return decisions, nil
}

// ask repeats question until the first letter of the answer is one of
// choices. End of input stops the review.
func ask(in *bufio.Scanner, out io.Writer, question, choices string) (byte, error) {
	for {
		fmt.Fprint(out, question)
		if !in.Scan() {
			fmt.Fprintln(out)
			return 0, errStop
		}
		answer := strings.ToLower(strings.TrimSpace(in.Text()))
		if answer != "" && strings.IndexByte(choices, answer[0]) >= 0 {
			return answer[0], nil
		}
	}
}

// readDecisions reads a JSON or YAML list of review decisions.
func readDecisions(path string) ([]reconcile.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	format := snapshot.FormatFromPath(path)
	if format == "" {
		format = sniff(data)
	}

	var decisions []reconcile.Decision
	switch format {
	case snapshot.FormatJSON:
		err = json.Unmarshal(data, &decisions)
	default:
		err = yaml.Unmarshal(data, &decisions)
	}
	if err != nil {
		return nil, errors.WrapParse(string(format), path, err)
	}
	return decisions, nil
}

// sniff treats a document opening with '[' as JSON.
func sniff(data []byte) snapshot.Format {
	trimmed := strings.TrimLeft(string(data), " \t\r\n\ufeff")
	if strings.HasPrefix(trimmed, "[") {
		return snapshot.FormatJSON
	}
	return snapshot.FormatYAML
}
