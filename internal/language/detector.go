// Package language guesses the language of legal text from high-frequency
// word lists.
package language

import (
	"strings"

	"github.com/opensource-finance/deviza/internal/domain"
)

// phraseBonus is added once when any distinctive phrase of a language occurs.
const phraseBonus = 0.2

// minSentenceLen is the byte length a sentence must exceed to be scored in
// mixed-language detection.
const minSentenceLen = 20

// minMixedConfidence drops sentence detections that carry no signal.
const minMixedConfidence = 0.1

// Detection is the outcome of scoring one text.
type Detection struct {
	Language   domain.Language             `json:"language"`
	Confidence float64                     `json:"confidence"`
	Scores     map[domain.Language]float64 `json:"scores,omitempty"`
}

// SentenceDetection is a Detection for one sentence of a larger document.
type SentenceDetection struct {
	Sentence string `json:"sentence"`
	Detection
}

type profile struct {
	words   map[string]struct{}
	phrases []string
}

// Detector scores text against per-language word lists. It holds only
// immutable tables and is safe for concurrent use.
type Detector struct {
	profiles map[domain.Language]profile
}

// NewDetector creates a detector for hu, en, cs and pl.
func NewDetector() *Detector {
	return &Detector{
		profiles: map[domain.Language]profile{
			domain.LangHungarian: newProfile(
				[]string{
					"a", "az", "és", "vagy", "de", "hogy", "nem", "van", "volt", "lesz",
					"hitel", "bank", "szerződés", "kamat", "deviza", "kockázat", "árfolyam",
					"tájékoztatás", "figyelmeztetés", "költség", "díj", "kölcsön", "jelzálog",
					"törlesztés", "részlet", "feltétel", "módosítás", "felmondás",
				},
				"deviza", "árfolyam", "huf",
			),
			domain.LangEnglish: newProfile(
				[]string{
					"the", "and", "or", "but", "that", "not", "is", "was", "will", "have",
					"loan", "bank", "contract", "interest", "currency", "risk", "exchange",
					"information", "warning", "cost", "fee", "mortgage", "payment",
					"installment", "condition", "modification", "termination",
				},
				"foreign currency", "exchange rate",
			),
			domain.LangCzech: newProfile(
				[]string{
					"a", "je", "se", "na", "do", "za", "od", "po", "před", "při",
					"úvěr", "banka", "smlouva", "úrok", "měna", "riziko", "kurz",
					"informace", "varování", "náklad", "poplatek", "hypotéka",
				},
				"měnové riziko", "směnný kurz",
			),
			domain.LangPolish: newProfile(
				[]string{
					"i", "a", "w", "na", "z", "do", "od", "po", "przez", "przy",
					"kredyt", "bank", "umowa", "odsetki", "waluta", "ryzyko", "kurs",
					"informacja", "ostrzeżenie", "koszt", "opłata", "hipoteka",
				},
				"ryzyko walutowe", "kurs wymiany",
			),
		},
	}
}

func newProfile(words []string, phrases ...string) profile {
	p := profile{words: make(map[string]struct{}, len(words)), phrases: phrases}
	for _, w := range words {
		p.words[w] = struct{}{}
	}
	return p
}

// Detect returns the best-scoring language. Ties are broken by
// domain.DetectionOrder; a strictly greater score is needed to displace an
// earlier language. Empty text, or text matching no list, yields
// ("unknown", 0).
func (d *Detector) Detect(text string) Detection {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return Detection{Language: domain.LangUnknown}
	}
	total := float64(len(words))

	scores := make(map[domain.Language]float64, len(domain.DetectionOrder))
	best, bestScore := domain.LangUnknown, 0.0
	for _, lang := range domain.DetectionOrder {
		p := d.profiles[lang]

		matches := 0
		for _, w := range words {
			if _, ok := p.words[w]; ok {
				matches++
			}
		}
		score := float64(matches) / total
		for _, phrase := range p.phrases {
			if strings.Contains(lower, phrase) {
				score += phraseBonus
				break
			}
		}
		score = min(score, 1.0)
		scores[lang] = score

		if score > bestScore {
			best, bestScore = lang, score
		}
	}

	return Detection{Language: best, Confidence: bestScore, Scores: scores}
}

// DetectMixed scores each '.'-delimited sentence longer than 20 bytes on its
// own and keeps detections with confidence above 0.1.
func (d *Detector) DetectMixed(text string) []SentenceDetection {
	var out []SentenceDetection
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if len(s) <= minSentenceLen {
			continue
		}
		det := d.Detect(s)
		if det.Confidence > minMixedConfidence {
			out = append(out, SentenceDetection{Sentence: s, Detection: det})
		}
	}
	return out
}

// Resolve returns lang when it is known, otherwise the detected language.
// The boolean reports whether detection ran.
func (d *Detector) Resolve(text string, lang domain.Language) (domain.Language, bool) {
	if lang.IsKnown() {
		return lang, false
	}
	return d.Detect(text).Language, true
}
