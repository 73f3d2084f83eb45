package patterns

import (
	"fmt"
	"os"

	"github.com/opensource-finance/deviza/internal/domain"
	"gopkg.in/yaml.v3"
)

// packFile is the on-disk layout of a YAML pattern pack.
type packFile struct {
	Version  string      `yaml:"version"`
	Patterns []packEntry `yaml:"patterns"`
}

type packEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Type        string `yaml:"pattern_type"`
	Text        string `yaml:"pattern_text"`
	Language    string `yaml:"language"`
	Category    string `yaml:"clause_category"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
	LegalBasis  string `yaml:"legal_basis"`
	Active      *bool  `yaml:"is_active"`
}

// LoadFile reads a YAML pattern pack. Entries omit is_active to mean active;
// a missing version inherits the pack version.
func LoadFile(path string) ([]*domain.ClausePattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern pack: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML pattern pack.
func Parse(data []byte) ([]*domain.ClausePattern, error) {
	var pack packFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pattern pack: %w", err)
	}

	out := make([]*domain.ClausePattern, 0, len(pack.Patterns))
	for i, e := range pack.Patterns {
		if e.ID == "" {
			return nil, fmt.Errorf("pattern pack entry %d: id is required", i)
		}
		cat := domain.Category(e.Category)
		if !cat.Valid() {
			return nil, fmt.Errorf("pattern %s: unknown category %q", e.ID, e.Category)
		}

		p := &domain.ClausePattern{
			ID:          e.ID,
			Name:        e.Name,
			Version:     e.Version,
			Type:        domain.PatternType(e.Type),
			Text:        e.Text,
			Language:    domain.ParseLanguage(e.Language),
			Category:    cat,
			Severity:    e.Severity,
			Description: e.Description,
			LegalBasis:  e.LegalBasis,
			Active:      e.Active == nil || *e.Active,
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if p.Version == "" {
			p.Version = pack.Version
		}
		if p.Type == "" {
			p.Type = domain.PatternRegex
		}
		if p.Language == domain.LangUnknown {
			p.Language = domain.LangMultilingual
		}
		out = append(out, p)
	}
	return out, nil
}
