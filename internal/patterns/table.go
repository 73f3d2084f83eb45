// Package patterns holds the clause pattern tables and compiles them into
// matchers.
package patterns

import (
	"fmt"
	"slices"

	"github.com/opensource-finance/deviza/internal/domain"
)

// Table maps Language x Category to an ordered pattern list. A Table is
// immutable once built; Merge returns a new one.
type Table struct {
	byLang   map[domain.Language]map[domain.Category][]domain.ClausePattern
	ids      map[string]struct{}
	rejected []SkippedPattern
	fallback domain.Language
}

// NewTable creates an empty table. Languages without their own patterns
// resolve to fallback.
func NewTable(fallback domain.Language) *Table {
	return &Table{
		byLang:   make(map[domain.Language]map[domain.Category][]domain.ClausePattern),
		ids:      make(map[string]struct{}),
		fallback: fallback,
	}
}

func (t *Table) add(p domain.ClausePattern) {
	cats, ok := t.byLang[p.Language]
	if !ok {
		cats = make(map[domain.Category][]domain.ClausePattern)
		t.byLang[p.Language] = cats
	}
	cats[p.Category] = append(cats[p.Category], p)
	t.ids[p.ID] = struct{}{}
}

// Has reports whether a pattern with id is in the table.
func (t *Table) Has(id string) bool {
	_, ok := t.ids[id]
	return ok
}

// Rejected returns the extra patterns Merge refused because their ID was
// already taken.
func (t *Table) Rejected() []SkippedPattern {
	return t.rejected
}

// Fallback returns the language used when no pattern set matches.
func (t *Table) Fallback() domain.Language {
	return t.fallback
}

// Resolve returns lang if it has a pattern set, otherwise the fallback.
// This is the only place the fallback rule is applied.
func (t *Table) Resolve(lang domain.Language) domain.Language {
	if _, ok := t.byLang[lang]; ok && lang != domain.LangMultilingual {
		return lang
	}
	return t.fallback
}

// Lookup returns the patterns for a resolved language and category,
// followed by multilingual patterns of that category.
func (t *Table) Lookup(lang domain.Language, cat domain.Category) []domain.ClausePattern {
	resolved := t.Resolve(lang)
	out := slices.Clone(t.byLang[resolved][cat])
	return append(out, t.byLang[domain.LangMultilingual][cat]...)
}

// Languages returns the languages with their own pattern set, sorted.
func (t *Table) Languages() []domain.Language {
	langs := make([]domain.Language, 0, len(t.byLang))
	for l := range t.byLang {
		if l != domain.LangMultilingual {
			langs = append(langs, l)
		}
	}
	slices.Sort(langs)
	return langs
}

// Patterns returns every pattern, ordered by language then category.
func (t *Table) Patterns() []domain.ClausePattern {
	var out []domain.ClausePattern
	langs := t.Languages()
	if _, ok := t.byLang[domain.LangMultilingual]; ok {
		langs = append(langs, domain.LangMultilingual)
	}
	for _, l := range langs {
		for _, c := range domain.AllCategories {
			out = append(out, t.byLang[l][c]...)
		}
	}
	return out
}

// Len returns the number of patterns in the table.
func (t *Table) Len() int {
	n := 0
	for _, cats := range t.byLang {
		for _, ps := range cats {
			n += len(ps)
		}
	}
	return n
}

// Merge returns a copy of t with the active extra patterns appended.
// Patterns with an unknown category are ignored. Pattern IDs key clause
// IDs, so an extra pattern whose ID is already present is rejected; the
// first occurrence wins.
func (t *Table) Merge(extra []*domain.ClausePattern) *Table {
	out := NewTable(t.fallback)
	for _, p := range t.Patterns() {
		out.add(p)
	}
	out.rejected = slices.Clone(t.rejected)
	for _, p := range extra {
		if p == nil || !p.Active || !p.Category.Valid() {
			continue
		}
		if out.Has(p.ID) {
			out.rejected = append(out.rejected, SkippedPattern{
				PatternID: p.ID,
				Error:     fmt.Sprintf("duplicate pattern id %q", p.ID),
			})
			continue
		}
		cp := *p
		if !cp.Language.IsKnown() {
			cp.Language = domain.LangMultilingual
		}
		out.add(cp)
	}
	return out
}
