// Package export implements the export command.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/internal/cmd/emoji"
	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/snapshot"
)

// Flags holds the export command flags.
type Flags struct {
	Out      string
	Encoding string
}

// NewCommand creates the export command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Write the collection as a snapshot",
		Long: `Export writes the whole local collection as a snapshot that another
device can import. Records keep their local ids; claims carry their
content fingerprint.

The encoding defaults to the extension of --out, or JSON.`,
		Example: `  argmap export                       # JSON to stdout
  argmap export --out backup.yaml     # YAML, chosen by extension
  argmap export --encoding yaml | less`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Out, "out", "", "output file (default stdout)")
	cmd.Flags().StringVar(&flags.Encoding, "encoding", "", "snapshot encoding: json, yaml")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := cmd.Context()

	format, err := encoding(flags)
	if err != nil {
		return err
	}

	client, err := app.Client()
	if err != nil {
		return err
	}

	doc, err := client.ExportSnapshot(ctx)
	if err != nil {
		return err
	}
	app.Logger().Debug().Int("records", doc.Len()).Str("encoding", string(format)).Msg("Exporting collection")

	if flags.Out == "" {
		return doc.Encode(cmd.OutOrStdout(), format)
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf, format); err != nil {
		return err
	}
	if err := writeFile(flags.Out, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d records to %s\n", emoji.Success, doc.Len(), flags.Out)
	return nil
}

func encoding(flags *Flags) (snapshot.Format, error) {
	if flags.Encoding != "" {
		return snapshot.ParseFormat(flags.Encoding)
	}
	if format := snapshot.FormatFromPath(flags.Out); format != "" {
		return format, nil
	}
	return snapshot.FormatJSON, nil
}

// writeFile replaces path with data through a temporary file in the same
// directory, so readers never see a partial snapshot.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WrapIO("write", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Chmod(constants.FilePermissions); err != nil {
		tmp.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
