package domain

import "strings"

// Language is a two-letter document language code.
// Codes outside the supported set are kept verbatim so callers can report
// what was requested; pattern lookup resolves them to DefaultLanguage.
type Language string

const (
	LangHungarian Language = "hu"
	LangEnglish   Language = "en"
	LangCzech     Language = "cs"
	LangPolish    Language = "pl"
	LangUnknown   Language = "unknown"
)

// DefaultLanguage is the single fallback used when a language has no
// pattern set of its own.
const DefaultLanguage = LangHungarian

// DetectionOrder is the fixed priority used to break score ties during
// language detection.
var DetectionOrder = []Language{LangHungarian, LangEnglish, LangCzech, LangPolish}

var languageNames = map[Language]string{
	LangHungarian: "Hungarian",
	LangEnglish:   "English",
	LangCzech:     "Czech",
	LangPolish:    "Polish",
	"sk":          "Slovak",
	"ro":          "Romanian",
	"hr":          "Croatian",
	"sl":          "Slovenian",
}

var nameToCode = map[string]Language{
	"hungarian": LangHungarian,
	"english":   LangEnglish,
	"czech":     LangCzech,
	"polish":    LangPolish,
}

// ParseLanguage normalizes a code or English language name.
// Empty input yields LangUnknown.
func ParseLanguage(s string) Language {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LangUnknown
	}
	if code, ok := nameToCode[s]; ok {
		return code
	}
	return Language(s)
}

// IsKnown reports whether the language is set to something other than unknown.
func (l Language) IsKnown() bool {
	return l != "" && l != LangUnknown
}

// Name returns the English display name, or "Unknown".
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "Unknown"
}

// IsCentralEuropean reports whether the language belongs to the CEE region
// (hu, cs, pl, sk, ro, hr, sl).
func (l Language) IsCentralEuropean() bool {
	switch l {
	case LangHungarian, LangCzech, LangPolish, "sk", "ro", "hr", "sl":
		return true
	}
	return false
}

func (l Language) String() string {
	return string(l)
}
