// Package mapreduce counts term frequencies across records and reduces
// them into a corpus-wide table that remembers first appearance order.
package mapreduce

import "github.com/dtnitsch/review-harvester/models"

// Counter is a frequency table that keeps terms in first-seen order.
type Counter struct {
	index   map[string]int
	entries []models.TermCount
}

func NewCounter() *Counter {
	return &Counter{index: make(map[string]int)}
}

// Add counts one occurrence of term. Empty terms are ignored.
func (c *Counter) Add(term string) {
	c.AddN(term, 1)
}

// AddN counts n occurrences of term.
func (c *Counter) AddN(term string, n int) {
	if term == "" || n <= 0 {
		return
	}
	if i, ok := c.index[term]; ok {
		c.entries[i].Count += n
		return
	}
	c.index[term] = len(c.entries)
	c.entries = append(c.entries, models.TermCount{Term: term, Count: n})
}

// Count returns the occurrences recorded for term.
func (c *Counter) Count(term string) int {
	if i, ok := c.index[term]; ok {
		return c.entries[i].Count
	}
	return 0
}

// Len returns the number of distinct terms.
func (c *Counter) Len() int {
	return len(c.entries)
}

// Entries returns a copy of all terms in first-seen order.
func (c *Counter) Entries() []models.TermCount {
	out := make([]models.TermCount, len(c.entries))
	copy(out, c.entries)
	return out
}

// Map builds the frequency table for one record's terms.
func Map(terms []string) *Counter {
	c := NewCounter()
	for _, term := range terms {
		c.Add(term)
	}
	return c
}

// Reduce aggregates per-record tables, in order, into a single table.
func Reduce(intermediate []*Counter) *Counter {
	final := NewCounter()
	for _, counts := range intermediate {
		if counts == nil {
			continue
		}
		for _, e := range counts.entries {
			final.AddN(e.Term, e.Count)
		}
	}
	return final
}
