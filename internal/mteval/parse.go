package mteval

import (
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
)

// Orders is the number of cumulative n-gram orders reported per metric.
const Orders = 4

// Report layout of mteval-v14c.pl, counted from the end of its output after
// splitting on newlines.
const (
	nistLineFromEnd = 6
	bleuLineFromEnd = 4
)

// Scores holds cumulative NIST and BLEU for n-gram orders 1 through 4.
type Scores struct {
	NIST [Orders]float64 `json:"nist"`
	BLEU [Orders]float64 `json:"bleu"`
}

// ParseOutput extracts scores from the scorer's standard output. The NIST row
// is the sixth line from the end and the BLEU row the fourth; in each row the
// label is followed by the order 1-4 scores. Any other shape yields
// errors.ErrScorerProtocol.
func ParseOutput(output string) (Scores, error) {
	lines := strings.Split(output, "\n")
	if len(lines) < nistLineFromEnd {
		return Scores{}, apperrors.Newf(apperrors.ErrScorerProtocol,
			"expected at least %d output lines, got %d", nistLineFromEnd, len(lines))
	}
	var s Scores
	var err error
	if s.NIST, err = parseRow(lines[len(lines)-nistLineFromEnd], "NIST"); err != nil {
		return Scores{}, err
	}
	if s.BLEU, err = parseRow(lines[len(lines)-bleuLineFromEnd], "BLEU"); err != nil {
		return Scores{}, err
	}
	return s, nil
}

func parseRow(line string, metric string) ([Orders]float64, error) {
	var row [Orders]float64
	fields := strings.Fields(strings.Trim(line, "\r"))
	if len(fields) < Orders+1 {
		return row, apperrors.Newf(apperrors.ErrScorerProtocol,
			"%s row %q has %d fields, want at least %d", metric, line, len(fields), Orders+1)
	}
	for i := 0; i < Orders; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return row, apperrors.Newf(apperrors.ErrScorerProtocol,
				"%s row %q: order %d score %q is not numeric", metric, line, i+1, fields[i+1])
		}
		row[i] = v
	}
	return row, nil
}
