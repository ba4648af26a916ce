package evaluator

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/ngram"
)

// Orders is the number of n-gram orders every score vector carries.
const Orders = ngram.MaxOrder

// Result is the outcome of one evaluation run. NIST, BLEU, Entropy and
// MeanLength together form the metric tuple; Distinct and the run metadata
// are carried alongside.
type Result struct {
	RunID      string          `json:"run_id"`
	SystemID   string          `json:"system_id"`
	Hypothesis string          `json:"hypothesis"`
	References []string        `json:"references"`
	Segments   int             `json:"segments"`
	NIST       [Orders]float64 `json:"nist"`
	BLEU       [Orders]float64 `json:"bleu"`
	Entropy    [Orders]float64 `json:"entropy"`
	Distinct   [Orders]float64 `json:"distinct"`
	MeanLength float64         `json:"mean_length"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration_ns"`

	// Stages holds the time spent in each stage (score, ngram, lenstat).
	Stages map[string]time.Duration `json:"stages_ns,omitempty"`
}

// Tuple returns the metric tuple (NIST, BLEU, entropy, mean length).
func (r *Result) Tuple() (nist, bleu, entropy [Orders]float64, meanLength float64) {
	return r.NIST, r.BLEU, r.Entropy, r.MeanLength
}

// Text renders the result as an aligned plain-text table.
func (r *Result) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "system     %s (run %s)\n", r.SystemID, r.RunID)
	fmt.Fprintf(&b, "segments   %d\n", r.Segments)
	fmt.Fprintf(&b, "%-10s %9s %9s %9s %9s\n", "", "1-gram", "2-gram", "3-gram", "4-gram")
	writeRow(&b, "NIST", r.NIST)
	writeRow(&b, "BLEU", r.BLEU)
	writeRow(&b, "entropy", r.Entropy)
	writeRow(&b, "distinct", r.Distinct)
	fmt.Fprintf(&b, "avg_len    %.4f\n", r.MeanLength)
	return b.String()
}

func writeRow(b *strings.Builder, label string, row [Orders]float64) {
	fmt.Fprintf(b, "%-10s", label)
	for _, v := range row {
		fmt.Fprintf(b, " %9.4f", v)
	}
	b.WriteString("\n")
}
