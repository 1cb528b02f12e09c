package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/fingerprint"
)

func execute(t *testing.T, args ...string) (map[string]string, error) {
	t.Helper()
	app := &appcontext.Mock{OutputFormatFunc: func() string { return "json" }}

	var stdout bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return nil, err
	}

	var got map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	return got, nil
}

func TestNormalize(t *testing.T) {
	got, err := execute(t, "normalize", "Café,", "  CRÈME!")
	require.NoError(t, err)
	assert.Equal(t, "cafe creme", got["normalized"])
}

func TestSimilarity(t *testing.T) {
	got, err := execute(t, "similarity", "test", "tests")
	require.NoError(t, err)
	assert.Equal(t, "1", got["distance"])
	assert.Equal(t, "0.8000", got["ratio"])
	assert.Equal(t, "false", got["near_match"])

	got, err = execute(t, "similarity", "test", "tests", "--threshold", "0.8")
	require.NoError(t, err)
	assert.Equal(t, "true", got["near_match"])
}

func TestFingerprint(t *testing.T) {
	got, err := execute(t, "fingerprint", "claims", "Nuclear power is SAFE!", "--stance", "PRO")
	require.NoError(t, err)

	want := fingerprint.Of(&artifacts.Claim{Text: "nuclear power is safe", Stance: artifacts.StancePro, Strength: artifacts.StrengthMedium})
	assert.Equal(t, want, got["fingerprint"])
	assert.Equal(t, "nuclear power is safe | pro | medium", got["material"])
	assert.Equal(t, "claim", got["kind"])

	got, err = execute(t, "fingerprint", "source", "On Energy", "--publisher", "Acme", "--date", " 2020 ")
	require.NoError(t, err)
	assert.Equal(t, "on energy | acme | 2020", got["material"])

	_, err = execute(t, "fingerprint", "fallacy", "x")
	assert.Error(t, err)

	_, err = execute(t, "fingerprint", "claim", "x", "--stance", "sideways")
	assert.True(t, errors.IsValidationError(err))
}
