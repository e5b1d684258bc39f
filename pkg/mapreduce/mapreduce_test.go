package mapreduce

import (
	"testing"

	"github.com/dtnitsch/review-harvester/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestReduceKeepsFirstAppearanceOrder(t *testing.T) {
	counters := []*Counter{
		Map([]string{"sushi", "delivery"}),
		Map([]string{"delivery", "rolls", ""}),
		nil,
		Map([]string{"rolls", "sushi", "courier"}),
	}

	final := Reduce(counters)

	want := []models.TermCount{
		{Term: "sushi", Count: 2},
		{Term: "delivery", Count: 2},
		{Term: "rolls", Count: 2},
		{Term: "courier", Count: 1},
	}
	if diff := cmp.Diff(want, final.Entries()); diff != "" {
		t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, final.Count(""))
}

func TestTop(t *testing.T) {
	c := NewCounter()
	for _, term := range []string{"b", "a", "c", "a", "c", "d"} {
		c.Add(term)
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "ties broken by first appearance", n: 3, want: []string{"a", "c", "b"}},
		{name: "n larger than table", n: 10, want: []string{"a", "c", "b", "d"}},
		{name: "zero", n: 0, want: []string{}},
		{name: "negative", n: -1, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terms(c.Top(tt.n)))
		})
	}
}
