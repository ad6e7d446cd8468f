package engine

import (
	"container/heap"

	"cloud.google.com/go/civil"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// GenerateTransactions expands every rule over the effective window and
// merges the results into one stream ordered by date, then by rule order.
func GenerateTransactions(c *Context) []model.Transaction {
	rules := c.rules.rules
	streams := make([][]civil.Date, len(rules))
	total := 0
	for i, r := range rules {
		streams[i] = r.pattern.Expand(c.effectiveStart, c.effectiveEnd)
		total += len(streams[i])
	}

	h := make(cursorHeap, 0, len(rules))
	for i, dates := range streams {
		if len(dates) > 0 {
			h = append(h, cursor{date: dates[0], rule: i})
		}
	}
	heap.Init(&h)

	out := make([]model.Transaction, 0, total)
	for h.Len() > 0 {
		top := h[0]
		r := rules[top.rule]
		out = append(out, model.Transaction{
			Date:   top.date,
			Value:  r.Value,
			RuleID: r.ID,
			Name:   r.Name,
		})

		if next := top.pos + 1; next < len(streams[top.rule]) {
			h[0] = cursor{date: streams[top.rule][next], rule: top.rule, pos: next}
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	return out
}

// cursor points at the next unconsumed date of one rule's stream.
type cursor struct {
	date civil.Date
	rule int
	pos  int
}

type cursorHeap []cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	if h[i].date != h[j].date {
		return h[i].date.Before(h[j].date)
	}
	return h[i].rule < h[j].rule
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) { *h = append(*h, x.(cursor)) }

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
