package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/argmap"
	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/snapshot"
	"github.com/agentstation/argmap/pkg/store/memory"
)

func newApp(t *testing.T) *appcontext.Mock {
	t.Helper()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := memory.New(memory.WithEntities(
		&artifacts.Topic{Meta: artifacts.Meta{ID: "t1", CreatedAt: created, UpdatedAt: created}, Title: "Pets", Posture: artifacts.PostureUndecided},
		&artifacts.Claim{Meta: artifacts.Meta{ID: "c1", CreatedAt: created, UpdatedAt: created}, Text: "cats are better pets", Stance: artifacts.StancePro, Strength: artifacts.StrengthHigh, Topics: []string{"t1"}},
	))
	client, err := argmap.New(argmap.WithStore(st))
	require.NoError(t, err)
	return &appcontext.Mock{ClientFunc: func() (argmap.Client, error) { return client, nil }}
}

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestExportStdout(t *testing.T) {
	stdout, _, err := execute(t, newApp(t))
	require.NoError(t, err)

	doc, err := snapshot.Parse([]byte(stdout), snapshot.FormatJSON, "stdout")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Len())
	require.Len(t, doc.Claims, 1)
	assert.Len(t, doc.Claims[0].ClaimFingerprint, 16)
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.yaml")

	stdout, stderr, err := execute(t, newApp(t), "--out", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Exported 2 records")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snapshot.FormatYAML, snapshot.Sniff(data))

	doc, err := snapshot.Parse(data, snapshot.FormatYAML, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, doc.Claims[0].Topics)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestExportEncoding(t *testing.T) {
	stdout, _, err := execute(t, newApp(t), "--encoding", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "schemaVersion:")

	_, _, err = execute(t, newApp(t), "--encoding", "xml")
	assert.Error(t, err)
}
