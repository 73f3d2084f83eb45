// Package textproc provides normalization and coarse segmentation of
// contract text before extraction.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize composes the text to NFC, collapses runs of spaces, squashes
// three or more newlines into a blank line and trims the result.
// Hungarian accents arriving decomposed (PDF exports do this) would
// otherwise miss every pattern.
func Normalize(text string) string {
	s := norm.NFC.String(text)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	spaces, newlines := 0, 0
	for _, r := range s {
		switch r {
		case ' ', '\t':
			spaces++
			if spaces > 1 {
				continue
			}
			b.WriteRune(' ')
			continue
		case '\n':
			newlines++
			spaces = 0
			if newlines > 2 {
				continue
			}
			b.WriteRune('\n')
			continue
		}
		spaces, newlines = 0, 0
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Clean trims every line and drops empty ones.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// Sentences splits on full stops and keeps fragments longer than ten bytes.
func Sentences(text string) []string {
	return splitKeep(text, ".", 10)
}

// Paragraphs splits on blank lines and keeps blocks longer than twenty bytes.
func Paragraphs(text string) []string {
	return splitKeep(text, "\n\n", 20)
}

func splitKeep(text, sep string, minLen int) []string {
	var out []string
	for _, part := range strings.Split(text, sep) {
		part = strings.TrimSpace(part)
		if len(part) > minLen {
			out = append(out, part)
		}
	}
	return out
}

// Line is a numbered line of the input.
type Line struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Structure is the coarse layout of a contract.
type Structure struct {
	Headers    []Line `json:"headers"`
	Clauses    []Line `json:"clauses"`
	Paragraphs []Line `json:"paragraphs"`
}

var clauseMarkers = []string{"szerződő fél", "bank", "hitelfelvevő", "clause", "agreement"}

// DetectStructure classifies lines as headers (short, upper-case or
// numbered) and clause candidates (long lines with contract vocabulary).
// Paragraph entries index the first line of each blank-line separated block.
func DetectStructure(text string) Structure {
	var s Structure
	inBlock := false
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			inBlock = false
			continue
		}
		if !inBlock {
			s.Paragraphs = append(s.Paragraphs, Line{Index: i, Text: line})
			inBlock = true
		}

		if len(line) < 50 && (isHeaderCase(line) || startsWithDigit(line)) {
			s.Headers = append(s.Headers, Line{Index: i, Text: line})
		}
		if len(line) > 50 {
			lower := strings.ToLower(line)
			for _, m := range clauseMarkers {
				if strings.Contains(lower, m) {
					s.Clauses = append(s.Clauses, Line{Index: i, Text: line})
					break
				}
			}
		}
	}
	return s
}

func isHeaderCase(line string) bool {
	for _, r := range line {
		if !unicode.IsUpper(r) && !unicode.IsSpace(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func startsWithDigit(line string) bool {
	for _, r := range line {
		return unicode.IsDigit(r)
	}
	return false
}
