package ngram

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-12

func writeHyp(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hyp.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestUnigramTable(t *testing.T) {
	c, err := CountFile(writeHyp(t, "a b c", "a b c"), 0)
	require.NoError(t, err)

	uni := c.Table(1)
	assert.Equal(t, map[string]int{"a": 2, "b": 2, "c": 2}, uni.Counts())
	assert.Equal(t, 6, uni.Total())
	assert.InDelta(t, math.Log(3), uni.Entropy(), eps)

	want := -(3 * (2.0 / 6) * (math.Log(2) - math.Log(6)))
	assert.InDelta(t, want, uni.Entropy(), eps)
}

func TestTotalsMatchPositions(t *testing.T) {
	c := NewCounter()
	c.AddLine("a b c d e")
	c.AddLine("x y")
	assert.Equal(t, 7, c.Table(1).Total())
	assert.Equal(t, 5, c.Table(2).Total())
	assert.Equal(t, 3, c.Table(3).Total())
	assert.Equal(t, 2, c.Table(4).Total())
}

func TestNGramsDoNotCrossLines(t *testing.T) {
	c := NewCounter()
	c.AddLine("a b")
	c.AddLine("c d")
	assert.Equal(t, 0, c.Table(2).Count("b c"))
	assert.Equal(t, 1, c.Table(2).Count("a b"))
	assert.Equal(t, 0, c.Table(3).Total())
}

func TestEntropyAllDistinct(t *testing.T) {
	c := NewCounter()
	c.AddLine("w1 w2 w3 w4 w5 w6 w7 w8")
	for n := 1; n <= MaxOrder; n++ {
		total := c.Table(n).Total()
		assert.InDelta(t, math.Log(float64(total)), c.Table(n).Entropy(), eps, "order %d", n)
		assert.InDelta(t, 1.0, c.Table(n).Distinct(), eps)
	}
}

func TestEntropyAllIdentical(t *testing.T) {
	c := NewCounter()
	for i := 0; i < 5; i++ {
		c.AddLine("same words here now")
	}
	got := c.Entropy()
	assert.InDelta(t, 0.0, got[3], eps)
	assert.InDelta(t, 0.2, c.Table(4).Distinct(), eps)
}

func TestEntropyEmptyOrderIsZero(t *testing.T) {
	c, err := CountFile(writeHyp(t, "a b", "c"), 0)
	require.NoError(t, err)
	got := c.Entropy()
	assert.Equal(t, 0.0, got[2])
	assert.Equal(t, 0.0, got[3])
	assert.False(t, math.IsNaN(got[3]))

	empty := NewCounter()
	assert.Equal(t, [MaxOrder]float64{}, empty.Entropy())
	assert.Equal(t, [MaxOrder]float64{}, empty.Distinct())
}

func TestEntropyLineCap(t *testing.T) {
	path := writeHyp(t, "a b", "a b c d")

	capped, err := Entropy(path, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), capped[0], eps)
	assert.InDelta(t, 0.0, capped[1], eps)
	assert.Equal(t, 0.0, capped[2])

	full, err := Entropy(path, 0)
	require.NoError(t, err)
	assert.NotEqual(t, capped[0], full[0])
}

func TestEntropyMissingFile(t *testing.T) {
	_, err := Entropy(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)
}
