package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/argmap/pkg/reconcile"
	"github.com/agentstation/argmap/pkg/snapshot"
)

const snapshotJSON = `{
  "schemaVersion": "1.0",
  "exportedAt": "2024-02-01T00:00:00Z",
  "app": "argmap",
  "topics": [{"id": "t1", "title": "Pets"}],
  "claims": [
    {"id": "c1", "text": "cats are better pets", "topics": ["t1"]},
    {"id": "c2", "text": "rats are better pets", "topics": ["t1"]}
  ]
}`

// newTestApp isolates the app from the user's config and home directory.
func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	t.Setenv("ARGMAP_DATABASE", filepath.Join(dir, "data", "argmap.db"))
	t.Setenv("ARGMAP_LOG_OUTPUT", "discard")

	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

// execute runs the root command the way main does, capturing output.
func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := app.createRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestNew(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.Equal(t, 0.9, app.SimilarityThreshold())
	assert.Equal(t, 50, app.ReviewPageSize())
}

func TestClientIsSingleton(t *testing.T) {
	app := newTestApp(t)

	c1, err := app.Client()
	require.NoError(t, err)
	c2, err := app.Client()
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	_, err = os.Stat(app.Config().Database)
	assert.NoError(t, err, "the database is created on first use")

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
}

func TestImportExportRoundTrip(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o600))

	out, err := execute(t, app, "import", path, "--review", "reject-all", "-o", "json")
	require.NoError(t, err)

	var summary reconcile.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, reconcile.StateCommitted, summary.State)
	assert.Equal(t, 3, summary.Created)
	assert.Empty(t, summary.ItemsForReview, "records of one snapshot are not compared for similarity")

	out, err = execute(t, app, "export", "--encoding", "yaml")
	require.NoError(t, err)
	doc, err := snapshot.Parse([]byte(out), snapshot.FormatYAML, "export")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Len())

	// A second import of the same snapshot only finds duplicates
	out, err = execute(t, app, "import", path, "--review", "abort", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 3, summary.Duplicates)
}

func TestPersistentFlags(t *testing.T) {
	app := newTestApp(t)
	dir := t.TempDir()
	config := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(config, []byte("review_page_size: 5\nformat: yaml\n"), 0o600))

	out, err := execute(t, app, "--config", config, "--database", filepath.Join(dir, "other.db"), "-o", "json", "config", "show")
	require.NoError(t, err)

	var settings map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	assert.Equal(t, "5", settings["review_page_size"])
	assert.Equal(t, filepath.Join(dir, "other.db"), settings["database"])
	assert.Equal(t, config, settings["config_file"])

	_, err = execute(t, app, "-o", "csv", "version")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(t, app, "version", "-o", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "abc123", info["commit"])
}

func TestCommandGroups(t *testing.T) {
	app := newTestApp(t)
	root := app.createRootCommand()

	groups := map[string]string{}
	for _, cmd := range root.Commands() {
		groups[cmd.Name()] = cmd.GroupID
	}
	assert.Equal(t, "core", groups["import"])
	assert.Equal(t, "core", groups["export"])
	assert.Equal(t, "management", groups["inspect"])
	assert.Equal(t, "management", groups["config"])

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"import", "export", "inspect", "config", "version"})
}
