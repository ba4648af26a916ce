package mteval

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
)

func fakeMultiBleu(t *testing.T, body string) *MultiBleu {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "fake-multi-bleu.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+body), 0o755))
	return NewMultiBleu(config.ScorerConfig{
		MultiBleuCommand: []string{"sh", script},
		Timeout:          10 * time.Second,
	})
}

func TestMultiBleuRun(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "a b", "c d", "e f")
	ref := writeCorpus(t, dir, "ref.txt", "a b", "c d", "e f")

	// hyp_len echoes the number of stdin lines, ref_len the argument count.
	m := fakeMultiBleu(t, `n=$(wc -l | tr -d ' ')
echo "BLEU = 27.30, 60.1/33.2/20.1/12.8 (BP=1.000, ratio=1.012, hyp_len=$n, ref_len=$#)"
`)
	got, err := m.Run(context.Background(), []string{ref}, hyp)
	require.NoError(t, err)
	assert.Equal(t, 27.30, got.Score)
	assert.Contains(t, got.Output, "hyp_len=3,")
	assert.Contains(t, got.Output, "ref_len=1)")
}

func TestMultiBleuUnexpectedOutput(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "a")
	ref := writeCorpus(t, dir, "ref.txt", "a")

	m := fakeMultiBleu(t, `echo "It is not advisable to publish scores from multi-bleu.perl."`)
	_, err := m.Run(context.Background(), []string{ref}, hyp)
	assert.ErrorIs(t, err, apperrors.ErrScorerProtocol)
}

func TestMultiBleuFailure(t *testing.T) {
	dir := t.TempDir()
	hyp := writeCorpus(t, dir, "hyp.txt", "a")

	m := fakeMultiBleu(t, `echo "ERROR: could not find reference file" >&2; exit 1`)
	_, err := m.Run(context.Background(), []string{filepath.Join(dir, "missing")}, hyp)
	assert.ErrorIs(t, err, apperrors.ErrScorerFailed)
	var scorerErr *ScorerError
	require.ErrorAs(t, err, &scorerErr)
	assert.Contains(t, scorerErr.Stderr, "could not find reference file")
	assert.Contains(t, scorerErr.Diagnostics(), "could not find reference file")

	_, err = m.Run(context.Background(), nil, hyp)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
