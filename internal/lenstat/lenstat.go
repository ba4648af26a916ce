// Package lenstat computes output-length statistics for a corpus.
package lenstat

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
)

// MeanLength returns the arithmetic mean of per-line token counts over the
// first nLine lines of the file. nLine <= 0 uses every line. A file with no
// lines yields errors.ErrEmptyCorpus.
func MeanLength(path string, nLine int) (float64, error) {
	var lines, tokens int
	err := corpus.EachLine(path, nLine, func(_ int, line string) error {
		lines++
		tokens += len(tokenizer.Terms(line))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if lines == 0 {
		return 0, fmt.Errorf("mean length of %s: %w", path, apperrors.ErrEmptyCorpus)
	}
	return float64(tokens) / float64(lines), nil
}
