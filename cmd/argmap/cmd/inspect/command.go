// Package inspect implements diagnostics for the text matching used by
// import: normalization, similarity and fingerprints.
package inspect

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/internal/cmd/output"
	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/fingerprint"
	"github.com/agentstation/argmap/pkg/normalize"
	"github.com/agentstation/argmap/pkg/similarity"
)

// NewCommand creates the inspect command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspect",
		GroupID: "management",
		Short:   "Show how import compares text",
		Long: `Inspect shows the normalized form of text, the similarity of two texts,
and the content fingerprint of an entity, exactly as import computes them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newNormalizeCommand(app))
	cmd.AddCommand(newSimilarityCommand(app))
	cmd.AddCommand(newFingerprintCommand(app))

	return cmd
}

func newNormalizeCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "normalize <text>",
		Short:   "Show the normalized form of text",
		Example: `  argmap inspect normalize "Café,   CRÈME!"   # cafe creme`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return show(cmd, app, map[string]string{
				"input":      text,
				"normalized": normalize.String(text),
			})
		},
	}
}

func newSimilarityCommand(app appcontext.Interface) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:     "similarity <a> <b>",
		Short:   "Score how similar two texts are",
		Example: `  argmap inspect similarity "cats are better pets" "rats are better pets"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := normalize.String(args[0]), normalize.String(args[1])
			ratio := similarity.RatioNormalized(a, b)
			return show(cmd, app, map[string]string{
				"a":          a,
				"b":          b,
				"distance":   strconv.Itoa(similarity.Distance(a, b)),
				"ratio":      strconv.FormatFloat(ratio, 'f', 4, 64),
				"threshold":  strconv.FormatFloat(threshold, 'f', -1, 64),
				"near_match": strconv.FormatBool(ratio >= threshold),
			})
		},
	}
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", app.SimilarityThreshold(), "near-duplicate threshold")
	return cmd
}

// fingerprintFlags holds the identity fields that are not the primary text.
type fingerprintFlags struct {
	stance    string
	strength  string
	publisher string
	date      string
	claimID   string
}

func newFingerprintCommand(app appcontext.Interface) *cobra.Command {
	flags := &fingerprintFlags{}
	cmd := &cobra.Command{
		Use:   "fingerprint <kind> <text>",
		Short: "Compute the content fingerprint of an entity",
		Long: `Fingerprint computes the content fingerprint import uses to detect exact
duplicates. The text is the claim text, topic or source title, rebuttal or
question text, evidence content, or tag label.`,
		Example: `  argmap inspect fingerprint claim "Nuclear power is safe" --stance pro
  argmap inspect fingerprint source "On Energy" --publisher Acme --date 2020
  argmap inspect fingerprint evidence "Deaths per TWh" --claim-id c1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.entity(args[0], args[1])
			if err != nil {
				return err
			}
			return show(cmd, app, map[string]string{
				"kind":        e.EntityKind().String(),
				"material":    strings.Join(fingerprint.Material(e), " | "),
				"fingerprint": fingerprint.Of(e),
			})
		},
	}
	cmd.Flags().StringVar(&flags.stance, "stance", string(artifacts.StanceNeutral), "claim stance: pro, con, neutral")
	cmd.Flags().StringVar(&flags.strength, "strength", string(artifacts.StrengthMedium), "claim strength: low, medium, high")
	cmd.Flags().StringVar(&flags.publisher, "publisher", "", "source publisher")
	cmd.Flags().StringVar(&flags.date, "date", "", "source date")
	cmd.Flags().StringVar(&flags.claimID, "claim-id", "", "evidence claim id")
	return cmd
}

// entity builds an entity of the named kind carrying the identity fields.
func (f *fingerprintFlags) entity(kindName, text string) (artifacts.Entity, error) {
	kind, err := artifacts.ParseKind(kindName)
	if err != nil {
		return nil, err
	}
	e, err := artifacts.New(kind)
	if err != nil {
		return nil, err
	}

	switch v := e.(type) {
	case *artifacts.Topic:
		v.Title = text
	case *artifacts.Claim:
		v.Text = text
		v.Stance = artifacts.Stance(strings.ToLower(f.stance))
		v.Strength = artifacts.Strength(strings.ToLower(f.strength))
		if !v.Stance.Valid() {
			return nil, errors.NewValidationError("stance", f.stance, "must be pro, con or neutral")
		}
		if !v.Strength.Valid() {
			return nil, errors.NewValidationError("strength", f.strength, "must be low, medium or high")
		}
	case *artifacts.Rebuttal:
		v.Text = text
	case *artifacts.Evidence:
		v.Content = text
		v.ClaimID = f.claimID
	case *artifacts.Question:
		v.Text = text
	case *artifacts.Source:
		v.Title = text
		v.Publisher = f.publisher
		v.Date = f.date
	case *artifacts.Tag:
		v.Label = text
	}
	return e, nil
}

func show(cmd *cobra.Command, app appcontext.Interface, values map[string]string) error {
	formatter := output.NewFormatter(output.DetectFormat(app.OutputFormat()))
	return formatter.Format(cmd.OutOrStdout(), values)
}
