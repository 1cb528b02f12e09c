package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/argmap"
	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/logging"
	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/store/memory"
)

const snapshotJSON = `{
  "schemaVersion": "1.0",
  "exportedAt": "2024-02-01T00:00:00Z",
  "app": "argmap",
  "topics": [{"id": "t1", "title": "Pets", "createdAt": "2024-01-01T00:00:00Z"}],
  "claims": [
    {"id": "c1", "text": "rats are better pets", "topics": ["t1"], "createdAt": "2024-01-02T00:00:00Z"},
    {"id": "c2", "text": "Goldfish are easy to keep", "topics": ["t1"], "createdAt": "2024-01-03T00:00:00Z"}
  ]
}`

type harness struct {
	store  *memory.Store
	app    *appcontext.Mock
	stdout bytes.Buffer
	stderr bytes.Buffer
	file   string
}

func newHarness(t *testing.T, format string) *harness {
	t.Helper()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &harness{store: memory.New(memory.WithEntities(&artifacts.Claim{
		Meta:     artifacts.Meta{ID: "local", CreatedAt: created, UpdatedAt: created},
		Text:     "cats are better pets",
		Stance:   artifacts.StanceNeutral,
		Strength: artifacts.StrengthMedium,
	}))}

	client, err := argmap.New(argmap.WithStore(h.store), argmap.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	h.app = &appcontext.Mock{
		ClientFunc:       func() (argmap.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
	}

	h.file = filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(h.file, []byte(snapshotJSON), 0o600))
	return h
}

func (h *harness) run(stdin string, args ...string) error {
	cmd := NewCommand(h.app)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stderr)
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) claims() int {
	return h.store.Collection().Len(artifacts.KindClaim)
}

func TestImportRejectAll(t *testing.T) {
	h := newHarness(t, "table")

	require.NoError(t, h.run("", h.file, "--review", "reject-all"))

	assert.Contains(t, h.stdout.String(), "Import committed")
	assert.Equal(t, 3, h.claims())
	assert.True(t, h.store.Collection().Exists(artifacts.KindClaim, "c1"))
	assert.Equal(t, 1, h.store.Commits())
}

func TestImportConfirmAll(t *testing.T) {
	h := newHarness(t, "table")

	require.NoError(t, h.run("", h.file, "--review", "confirm-all", "--details"))

	assert.Equal(t, 2, h.claims())
	assert.False(t, h.store.Collection().Exists(artifacts.KindClaim, "c1"))
	assert.Contains(t, h.stdout.String(), "Records (3)")
}

func TestImportAbortsWithoutTerminal(t *testing.T) {
	h := newHarness(t, "table")

	err := h.run("", h.file)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrAborted)
	assert.Contains(t, err.Error(), "1 near-duplicates")
	assert.Contains(t, h.stderr.String(), "rats are better pets")
	assert.Equal(t, 0, h.store.Commits())

	// The aborted session no longer blocks the next import
	require.NoError(t, h.run("", h.file, "--review", "reject-all"))
}

func TestImportPrompt(t *testing.T) {
	restore := isTerminal
	isTerminal = func(*cobra.Command) bool { return true }
	t.Cleanup(func() { isTerminal = restore })

	t.Run("item by item", func(t *testing.T) {
		h := newHarness(t, "table")
		require.NoError(t, h.run("x\ni\nr\n", h.file))
		assert.Equal(t, 3, h.claims())
		assert.Contains(t, h.stderr.String(), "page 1/1")
	})

	t.Run("abort", func(t *testing.T) {
		h := newHarness(t, "table")
		err := h.run("a\n", h.file)
		assert.ErrorIs(t, err, reconcile.ErrAborted)
		assert.Equal(t, 0, h.store.Commits())
	})

	t.Run("end of input aborts", func(t *testing.T) {
		h := newHarness(t, "table")
		err := h.run("", h.file)
		assert.ErrorIs(t, err, reconcile.ErrAborted)
	})
}

func TestImportDecisionsFile(t *testing.T) {
	h := newHarness(t, "table")
	path := filepath.Join(t.TempDir(), "decisions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- kind: claim\n  snapshotId: c1\n  action: confirm\n"), 0o600))

	require.NoError(t, h.run("", h.file, "--decisions", path))
	assert.Equal(t, 2, h.claims())

	t.Run("decisions for the wrong record", func(t *testing.T) {
		h := newHarness(t, "table")
		path := filepath.Join(t.TempDir(), "decisions.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"kind":"claim","snapshotId":"c2","action":"reject"}]`), 0o600))

		err := h.run("", h.file, "--decisions", path)
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.Equal(t, 0, h.store.Commits())
	})
}

func TestImportJSONOutput(t *testing.T) {
	h := newHarness(t, "json")

	require.NoError(t, h.run("", h.file, "--review", "reject-all"))

	var got reconcile.Summary
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, reconcile.StateCommitted, got.State)
	assert.Equal(t, 3, got.Created)
	assert.Empty(t, got.Records, "records are only included with --details")
}

func TestImportFailures(t *testing.T) {
	t.Run("malformed snapshot", func(t *testing.T) {
		h := newHarness(t, "table")
		require.NoError(t, os.WriteFile(h.file, []byte(`{"schemaVersion": "2.0"}`), 0o600))

		err := h.run("", h.file, "--review", "reject-all")
		require.Error(t, err)
		assert.True(t, errors.IsParseError(err))
		assert.Contains(t, h.stdout.String(), "Import failed")
	})

	t.Run("missing file", func(t *testing.T) {
		h := newHarness(t, "table")
		err := h.run("", filepath.Join(t.TempDir(), "missing.json"))
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})

	t.Run("bad flags", func(t *testing.T) {
		h := newHarness(t, "table")
		assert.Error(t, h.run("", h.file, "--threshold", "1.5"))
		assert.Error(t, h.run("", h.file, "--review", "maybe"))
		assert.Error(t, h.run("", h.file, "--page-size", "0"))
		assert.Error(t, h.run("", h.file, "--review", "abort", "--decisions", "d.yaml"))
	})
}
