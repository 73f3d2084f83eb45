package main

import (
	"slices"
	"sync"

	"github.com/opensource-finance/deviza/internal/domain"
)

// Confusion holds the per-category counts. True negatives are not tracked;
// precision, recall and F1 do not need them.
type Confusion struct {
	TP, FP, FN int
}

// Precision is TP / (TP + FP), 0 when nothing was predicted.
func (c Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall is TP / (TP + FN), 0 when nothing was expected.
func (c Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Scoreboard accumulates confusion counts per category. Safe for
// concurrent use.
type Scoreboard struct {
	mu   sync.Mutex
	cats map[domain.Category]*Confusion
}

// NewScoreboard creates an empty scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{cats: make(map[domain.Category]*Confusion)}
}

// Record scores one sample and reports whether prediction and labels agree.
func (s *Scoreboard) Record(expected, predicted map[domain.Category]bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exact := true
	for _, cat := range domain.AllCategories {
		e, p := expected[cat], predicted[cat]
		if !e && !p {
			continue
		}
		c := s.cats[cat]
		if c == nil {
			c = &Confusion{}
			s.cats[cat] = c
		}
		switch {
		case e && p:
			c.TP++
		case p:
			c.FP++
			exact = false
		default:
			c.FN++
			exact = false
		}
	}
	return exact
}

// Get returns the counts for one category.
func (s *Scoreboard) Get(cat domain.Category) Confusion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.cats[cat]; c != nil {
		return *c
	}
	return Confusion{}
}

// Micro sums the counts over every category.
func (s *Scoreboard) Micro() Confusion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total Confusion
	for _, c := range s.cats {
		total.TP += c.TP
		total.FP += c.FP
		total.FN += c.FN
	}
	return total
}

func keys(m map[domain.Category]bool) []domain.Category {
	out := make([]domain.Category, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
