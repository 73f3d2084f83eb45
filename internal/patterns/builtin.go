package patterns

import (
	"fmt"

	"github.com/opensource-finance/deviza/internal/domain"
)

// BuiltinVersion is the version stamped on shipped patterns.
const BuiltinVersion = "1.0.0"

var builtinRegexes = map[domain.Language]map[domain.Category][]string{
	domain.LangHungarian: {
		domain.CategoryFXRisk: {
			`(?i)devizaalapú\s+hitel`,
			`(?i)árfolyamkockázat`,
			`(?i)deviza.*kockázat`,
			`(?i)svájci\s+frank`,
			`(?i)CHF.*alapú`,
			`(?i)devizában\s+denominált`,
			`(?i)árfolyam.*változás`,
			`(?i)deviza.*kamat`,
		},
		domain.CategoryTransparency: {
			`(?i)tájékoztat\pL*.*kockázat`,
			`(?i)figyelmeztetés`,
			`(?i)kockázat.*ismertetés`,
			`(?i)információ.*nyújtás`,
			`(?i)kockázat.*felvilágosítás`,
		},
		domain.CategoryInterestRate: {
			`(?i)kamat.*változás`,
			`(?i)kamatláb.*módosítás`,
			`(?i)kamat.*emelés`,
			`(?i)változó\s+kamat`,
			`(?i)kamat.*feltétel`,
		},
		domain.CategoryPenalty: {
			`(?i)késedelmi\s+kamat`,
			`(?i)díj.*felszámítás`,
			`(?i)költség.*visel`,
			`(?i)bírság`,
			`(?i)pótlék.*fizetés`,
		},
		domain.CategoryUnfairTerm: {
			`(?i)(bank|hitelező).*jogosult.*egyoldalú`,
			`(?i)szerződés.*módosítás.*bank`,
			`(?i)kizárólag.*bank.*dönt`,
		},
	},
	domain.LangEnglish: {
		domain.CategoryFXRisk: {
			`(?i)foreign\s+currency\s+loan`,
			`(?i)exchange\s+rate\s+risk`,
			`(?i)currency\s+fluctuation`,
			`(?i)Swiss\s+franc`,
			`(?i)CHF\s+loan`,
			`(?i)foreign\s+exchange`,
			`(?i)currency\s+exposure`,
			`(?i)FX\s+risk`,
		},
		domain.CategoryTransparency: {
			`(?i)risk\s+disclosure`,
			`(?i)information\s+provided`,
			`(?i)warning.*risk`,
			`(?i)disclosure.*currency`,
			`(?i)informed.*decision`,
		},
		domain.CategoryInterestRate: {
			`(?i)interest\s+rate\s+change`,
			`(?i)variable\s+interest`,
			`(?i)rate\s+adjustment`,
			`(?i)interest.*modification`,
			`(?i)rate\s+variation`,
		},
		domain.CategoryPenalty: {
			`(?i)penalty.*fee`,
			`(?i)additional\s+charges`,
			`(?i)late\s+payment`,
			`(?i)default\s+interest`,
			`(?i)administrative\s+fee`,
		},
		domain.CategoryUnfairTerm: {
			`(?i)bank.*right.*unilateral`,
			`(?i)contract.*modification.*bank`,
			`(?i)solely.*bank.*discretion`,
		},
	},
}

var categorySeverity = map[domain.Category]string{
	domain.CategoryFXRisk:       domain.SeverityCritical,
	domain.CategoryTransparency: domain.SeverityWarning,
	domain.CategoryInterestRate: domain.SeverityWarning,
	domain.CategoryPenalty:      domain.SeverityMedium,
	domain.CategoryUnfairTerm:   domain.SeverityWarning,
}

// Builtin returns the shipped Hungarian and English pattern table. Every
// other language resolves to domain.DefaultLanguage.
func Builtin() *Table {
	return BuiltinWithFallback(domain.DefaultLanguage)
}

// BuiltinWithFallback returns the shipped table with a custom fallback language.
func BuiltinWithFallback(fallback domain.Language) *Table {
	t := NewTable(fallback)
	for _, lang := range []domain.Language{domain.LangHungarian, domain.LangEnglish} {
		for _, cat := range domain.AllCategories {
			for i, expr := range builtinRegexes[lang][cat] {
				id := fmt.Sprintf("%s.%s.%02d", lang, cat, i+1)
				t.add(domain.ClausePattern{
					ID:          id,
					Name:        id,
					Version:     BuiltinVersion,
					Type:        domain.PatternRegex,
					Text:        expr,
					Language:    lang,
					Category:    cat,
					Severity:    categorySeverity[cat],
					Description: cat.Description(),
					Active:      true,
				})
			}
		}
	}
	return t
}
