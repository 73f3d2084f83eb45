package matcher

// Override holds per-precedent adjustments keyed by case number. Every
// entry refers to a case in the shipped corpus; when the corpus changes,
// this table changes with it.
type Override struct {
	// FXBonus is added to fx_risk clause scores for this case.
	FXBonus float64

	// TransparencyOnPoint grants the transparency bonus even when the
	// ruling text does not mention information or disclosure.
	TransparencyOnPoint bool

	// ApplicationNote replaces the generic application note.
	ApplicationNote string
}

const invalidationNote = "Recent CJEU ruling requiring full contract invalidation when FX risk clauses are unfair. " +
	"Provides strong precedent for complete restitution."

// DefaultOverrides returns the override table for the seed corpus.
func DefaultOverrides() map[string]Override {
	return map[string]Override{
		"C-186/16": {
			FXBonus:             0.3,
			TransparencyOnPoint: true,
			ApplicationNote: "Establishes duty to inform consumers about FX risks. " +
				"Banks must explain how currency depreciation would affect payments.",
		},
		"C-705/21": {FXBonus: 0.4, ApplicationNote: invalidationNote},
		"C-630/23": {FXBonus: 0.4, ApplicationNote: invalidationNote},
		"C-520/21": {
			FXBonus: 0.3,
			ApplicationNote: "Confirms banks cannot claim compensation when contracts are invalidated. " +
				"Consumers entitled to full refund of payments made.",
		},
		"C-26/13": {
			ApplicationNote: "Early precedent on currency clause transparency. " +
				"Shows evolution of CJEU thinking toward stronger consumer protection.",
		},
	}
}
