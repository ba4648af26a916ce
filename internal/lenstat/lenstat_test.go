package lenstat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
)

func TestMeanLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyp.txt")
	require.NoError(t, os.WriteFile(path, []byte("a b\na b c d\n"), 0o644))

	got, err := MeanLength(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = MeanLength(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestMeanLengthCountsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyp.txt")
	require.NoError(t, os.WriteFile(path, []byte("a b c d\n\n"), 0o644))

	got, err := MeanLength(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestMeanLengthEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := MeanLength(path, 0)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
}
