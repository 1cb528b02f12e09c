package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
)

// Format is a snapshot encoding.
type Format string

// Snapshot encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses an encoding name. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.NewValidationError("encoding", s, "must be json or yaml")
}

// FormatFromPath guesses the encoding from a file extension. It returns
// the empty Format when the extension is not recognized.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// Sniff guesses the encoding from content: JSON documents start with '{'.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a snapshot and checks its schema version. A malformed
// document or unsupported version is a ParseError. An empty format is
// sniffed from the content. name is only used in error messages.
func Parse(data []byte, format Format, name string) (*Document, error) {
	if format == "" {
		format = Sniff(data)
	}

	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, jsonParseError(data, name, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.NewParseError(string(format), name, yaml.FormatError(err, false, false), err)
		}
	default:
		return nil, errors.NewParseError(string(format), name, "unsupported encoding", nil)
	}

	if err := checkVersion(&doc); err != nil {
		return nil, errors.NewParseError(string(format), name, err.Error(), err)
	}
	return &doc, nil
}

// Decode reads all of r and parses it.
func Decode(r io.Reader, format Format, name string) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxSnapshotBytes+1))
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	if len(data) > constants.MaxSnapshotBytes {
		return nil, errors.NewParseError(string(format), name, "snapshot exceeds size limit", nil)
	}
	return Parse(data, format, name)
}

func checkVersion(doc *Document) error {
	switch doc.SchemaVersion {
	case constants.SchemaVersion:
		return nil
	case "":
		return fmt.Errorf("missing schemaVersion")
	default:
		return fmt.Errorf("unsupported schemaVersion %q, want %q", doc.SchemaVersion, constants.SchemaVersion)
	}
}

// jsonParseError converts a decoding error into a ParseError with a line
// and column when the decoder reports an offset.
func jsonParseError(data []byte, name string, err error) error {
	var offset int64 = -1
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}

	pe := errors.NewParseError(string(FormatJSON), name, err.Error(), err)
	if offset >= 0 && offset <= int64(len(data)) {
		prefix := data[:offset]
		pe.Line = bytes.Count(prefix, []byte("\n")) + 1
		pe.Column = int(offset) - bytes.LastIndexByte(prefix, '\n')
	}
	return pe
}

// Encode writes the document in the given encoding.
func (d *Document) Encode(w io.Writer, format Format) error {
	switch format {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(d, yaml.Indent(2), yaml.IndentSequence(true))
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return errors.NewValidationError("encoding", string(format), "must be json or yaml")
}
