package mapreduce

import (
	"sort"

	"github.com/dtnitsch/review-harvester/models"
)

// Top returns the n most frequent terms by descending count. Ties keep
// first-appearance order.
func (c *Counter) Top(n int) []models.TermCount {
	ss := c.Entries()

	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].Count > ss[j].Count
	})

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	if limit < 0 {
		limit = 0
	}
	return ss[:limit]
}

// Terms returns just the terms of entries.
func Terms(entries []models.TermCount) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Term
	}
	return out
}
