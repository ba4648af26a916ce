// Package ngram builds n-gram frequency tables over a hypothesis corpus and
// derives lexical-diversity statistics from them.
//
// Entropy uses the natural logarithm so that scores stay comparable with
// previously published diversity numbers.
package ngram

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/tokenizer"
)

// MaxOrder is the highest n-gram order tracked.
const MaxOrder = 4

// Table maps a space-joined n-gram to its occurrence count for a single
// order. The zero value is ready to use.
type Table struct {
	counts map[string]int
	total  int
}

// Add records one occurrence of gram.
func (t *Table) Add(gram string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	t.counts[gram]++
	t.total++
}

// Count returns the number of occurrences of gram.
func (t *Table) Count(gram string) int {
	return t.counts[gram]
}

// Total is the number of n-gram positions scanned.
func (t *Table) Total() int {
	return t.total
}

// Len is the number of distinct n-grams.
func (t *Table) Len() int {
	return len(t.counts)
}

// Counts returns a copy of the frequency table.
func (t *Table) Counts() map[string]int {
	out := make(map[string]int, len(t.counts))
	for g, c := range t.counts {
		out[g] = c
	}
	return out
}

// Entropy returns the Shannon entropy, in nats, of the empirical n-gram
// distribution. An empty table has entropy 0.
func (t *Table) Entropy() float64 {
	if t.total == 0 {
		return 0
	}
	total := float64(t.total)
	logTotal := math.Log(total)
	var h float64
	for _, c := range t.counts {
		v := float64(c)
		h += -v / total * (math.Log(v) - logTotal)
	}
	return h
}

// Distinct returns the ratio of distinct n-grams to n-gram positions, or 0
// for an empty table.
func (t *Table) Distinct() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(len(t.counts)) / float64(t.total)
}

// Counter accumulates frequency tables for orders 1 through MaxOrder.
type Counter struct {
	tables [MaxOrder]Table
	lines  int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// AddLine tokenises one corpus line and counts all of its n-grams. N-grams
// never span two lines.
func (c *Counter) AddLine(line string) {
	terms := tokenizer.Terms(line)
	for n := 1; n <= MaxOrder; n++ {
		for _, g := range tokenizer.NGrams(terms, n) {
			c.tables[n-1].Add(g)
		}
	}
	c.lines++
}

// Lines is the number of lines counted.
func (c *Counter) Lines() int {
	return c.lines
}

// Table returns the frequency table for order n (1-based). It panics if n is
// outside [1, MaxOrder].
func (c *Counter) Table(n int) *Table {
	return &c.tables[n-1]
}

// Entropy returns the entropy for each order, index 0 holding unigrams.
func (c *Counter) Entropy() [MaxOrder]float64 {
	var out [MaxOrder]float64
	for i := range c.tables {
		out[i] = c.tables[i].Entropy()
	}
	return out
}

// Distinct returns the distinct-n ratio for each order.
func (c *Counter) Distinct() [MaxOrder]float64 {
	var out [MaxOrder]float64
	for i := range c.tables {
		out[i] = c.tables[i].Distinct()
	}
	return out
}

// CountFile builds a Counter over the first nLine lines of the hypothesis
// file at path. nLine <= 0 counts every line.
func CountFile(path string, nLine int) (*Counter, error) {
	c := NewCounter()
	err := corpus.EachLine(path, nLine, func(_ int, line string) error {
		c.AddLine(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Entropy computes per-order n-gram entropy of the hypothesis file.
func Entropy(path string, nLine int) ([MaxOrder]float64, error) {
	c, err := CountFile(path, nLine)
	if err != nil {
		return [MaxOrder]float64{}, err
	}
	return c.Entropy(), nil
}
