package patterns

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/deviza/internal/domain"
)

// ErrEmptyPattern is returned for patterns with no text.
var ErrEmptyPattern = errors.New("pattern text is empty")

// Span is a half-open byte range [Start, End) in the searched text.
type Span struct {
	Start int
	End   int
}

// Compiler turns ClausePatterns into executable matchers. Regex and keyword
// patterns compile to RE2 expressions; contextual patterns are CEL boolean
// expressions evaluated per sentence over the variables `text` (the
// lower-cased sentence) and `language`.
type Compiler struct {
	env *cel.Env
}

// NewCompiler creates a compiler with the contextual CEL environment.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("language", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Compiled is an executable pattern.
type Compiled struct {
	Pattern domain.ClausePattern

	re      *regexp.Regexp
	program cel.Program
}

// Validate compiles a pattern without keeping the result.
func (c *Compiler) Validate(p *domain.ClausePattern) error {
	if p == nil {
		return fmt.Errorf("pattern is required")
	}
	if !p.Category.Valid() {
		return fmt.Errorf("pattern %s: unknown category %q", p.ID, p.Category)
	}
	_, err := c.Compile(*p)
	return err
}

// Compile builds a matcher for p.
func (c *Compiler) Compile(p domain.ClausePattern) (*Compiled, error) {
	if strings.TrimSpace(p.Text) == "" {
		return nil, fmt.Errorf("pattern %s: %w", p.ID, ErrEmptyPattern)
	}

	switch p.Type {
	case domain.PatternRegex:
		expr := p.Text
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: invalid regex: %w", p.ID, err)
		}
		return &Compiled{Pattern: p, re: re}, nil

	case domain.PatternKeyword:
		var alts []string
		for _, kw := range strings.Split(p.Text, "|") {
			if kw = strings.TrimSpace(kw); kw != "" {
				alts = append(alts, regexp.QuoteMeta(kw))
			}
		}
		if len(alts) == 0 {
			return nil, fmt.Errorf("pattern %s: %w", p.ID, ErrEmptyPattern)
		}
		re, err := regexp.Compile("(?i)(" + strings.Join(alts, "|") + ")")
		if err != nil {
			return nil, fmt.Errorf("pattern %s: invalid keyword list: %w", p.ID, err)
		}
		return &Compiled{Pattern: p, re: re}, nil

	case domain.PatternContextual:
		ast, issues := c.env.Compile(p.Text)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.ID, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("pattern %s: expression must return bool, got %s", p.ID, ast.OutputType())
		}
		program, err := c.env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for pattern %s: %w", p.ID, err)
		}
		return &Compiled{Pattern: p, program: program}, nil
	}

	return nil, fmt.Errorf("pattern %s: unknown pattern type %q", p.ID, p.Type)
}

// FindAll returns every non-overlapping match in text as byte spans, in
// text order. Contextual patterns yield one span per matching sentence.
func (m *Compiled) FindAll(text string, lang domain.Language) []Span {
	if m.re != nil {
		locs := m.re.FindAllStringIndex(text, -1)
		spans := make([]Span, 0, len(locs))
		for _, loc := range locs {
			spans = append(spans, Span{Start: loc[0], End: loc[1]})
		}
		return spans
	}

	var spans []Span
	for _, s := range sentenceSpans(text) {
		out, _, err := m.program.Eval(map[string]any{
			"text":     strings.ToLower(text[s.Start:s.End]),
			"language": string(lang),
		})
		if err != nil {
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			spans = append(spans, s)
		}
	}
	return spans
}

// sentenceSpans splits text on sentence terminators and newlines, trimming
// surrounding whitespace. Empty sentences are dropped.
func sentenceSpans(text string) []Span {
	var spans []Span
	start := 0
	emit := func(end int) {
		s, e := start, end
		for s < e && isSpace(text[s]) {
			s++
		}
		for e > s && isSpace(text[e-1]) {
			e--
		}
		if e > s {
			spans = append(spans, Span{Start: s, End: e})
		}
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '\n':
			emit(i)
			start = i + 1
		}
	}
	emit(len(text))
	return spans
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// CompiledTable is a Table with every pattern compiled. Malformed patterns
// are skipped and recorded in Skipped.
type CompiledTable struct {
	table    *Table
	byLang   map[domain.Language]map[domain.Category][]*Compiled
	skipped  []SkippedPattern
	compiled int
}

// SkippedPattern records a pattern that failed to compile or was rejected
// as a duplicate.
type SkippedPattern struct {
	PatternID string `json:"patternId"`
	Error     string `json:"error"`
}

// CompileTable compiles every pattern in t. A malformed pattern is logged
// and skipped; it never prevents the rest of the table from loading.
func CompileTable(c *Compiler, t *Table) *CompiledTable {
	ct := &CompiledTable{
		table:  t,
		byLang: make(map[domain.Language]map[domain.Category][]*Compiled, len(t.byLang)),
	}
	for _, r := range t.rejected {
		slog.Warn("pattern skipped", "pattern_id", r.PatternID, "error", r.Error)
		ct.skipped = append(ct.skipped, r)
	}
	for lang, cats := range t.byLang {
		out := make(map[domain.Category][]*Compiled, len(cats))
		for cat, ps := range cats {
			for _, p := range ps {
				m, err := c.Compile(p)
				if err != nil {
					slog.Warn("pattern skipped",
						"pattern_id", p.ID,
						"language", lang,
						"category", cat,
						"error", err,
					)
					ct.skipped = append(ct.skipped, SkippedPattern{PatternID: p.ID, Error: err.Error()})
					continue
				}
				out[cat] = append(out[cat], m)
				ct.compiled++
			}
		}
		ct.byLang[lang] = out
	}
	slices.SortStableFunc(ct.skipped, func(a, b SkippedPattern) int {
		return strings.Compare(a.PatternID, b.PatternID)
	})
	return ct
}

// Table returns the source table.
func (ct *CompiledTable) Table() *Table {
	return ct.table
}

// Resolve applies the table's language fallback.
func (ct *CompiledTable) Resolve(lang domain.Language) domain.Language {
	return ct.table.Resolve(lang)
}

// Lookup returns compiled patterns for lang and cat, with the fallback
// applied, followed by multilingual patterns.
func (ct *CompiledTable) Lookup(lang domain.Language, cat domain.Category) []*Compiled {
	resolved := ct.table.Resolve(lang)
	out := make([]*Compiled, 0, len(ct.byLang[resolved][cat]))
	out = append(out, ct.byLang[resolved][cat]...)
	return append(out, ct.byLang[domain.LangMultilingual][cat]...)
}

// Skipped returns the patterns that failed to compile.
func (ct *CompiledTable) Skipped() []SkippedPattern {
	return ct.skipped
}

// Count returns the number of compiled patterns.
func (ct *CompiledTable) Count() int {
	return ct.compiled
}
