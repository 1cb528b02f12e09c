package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/argmap/pkg/similarity"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"test", "test", 0},
		{"test", "tests", 1},
		{"", "", 0},
		{"", "abc", 3},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
		{"日本語", "日本", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, similarity.Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, similarity.Distance(tt.b, tt.a), "distance is symmetric")
		})
	}
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 0.8, similarity.Ratio("test", "tests"), 1e-9)
	assert.InDelta(t, 1.0, similarity.Ratio("", ""), 1e-9)
	assert.InDelta(t, 0.0, similarity.Ratio("", "abc"), 1e-9)
	assert.InDelta(t, 1.0, similarity.Ratio("Café", "CAFE"), 1e-9)
	assert.InDelta(t, 0.95, similarity.Ratio("cats are better pets", "rats are better pets"), 1e-9)
}

func TestAreSimilar(t *testing.T) {
	assert.True(t, similarity.AreSimilar("This is a test", "This is a test!", 0.9))
	assert.False(t, similarity.AreSimilar("test", "tests", 0.9))
	assert.True(t, similarity.AreSimilar("same text", "Same text.", 1.0), "threshold is inclusive")
	assert.False(t, similarity.AreSimilar("nuclear power is safe", "taxes should be lower", 0.9))
}

func TestUpperBound(t *testing.T) {
	assert.InDelta(t, 1.0, similarity.UpperBound(0, 0), 1e-9)
	assert.InDelta(t, 0.8, similarity.UpperBound(4, 5), 1e-9)
	assert.InDelta(t, 0.5, similarity.UpperBound(20, 10), 1e-9)

	// The bound never undercuts the real ratio.
	a, b := "renewable subsidies", "renewable subsidy"
	bound := similarity.UpperBound(len([]rune(a)), len([]rune(b)))
	assert.GreaterOrEqual(t, bound, similarity.Ratio(a, b))
}
