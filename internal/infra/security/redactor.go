// File: internal/infra/security/redactor.go
package security

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
)

type piiPattern struct {
	category    model.PIICategory
	placeholder string
	re          *regexp.Regexp
	validate    func(match string) bool
}

// Patterns run in order; an earlier pattern wins an overlapping span.
// Placeholders contain neither digits nor '@', so no pattern can match them.
var piiPatterns = []piiPattern{
	{
		category:    model.PIIEmail,
		placeholder: "[EMAIL]",
		re:          regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
	},
	{
		category:    model.PIICreditCard,
		placeholder: "[CARD_NUMBER]",
		re:          regexp.MustCompile(`\b(?:\d[ \-]?){12,18}\d\b`),
		validate:    luhnValid,
	},
	{
		category:    model.PIISSN,
		placeholder: "[SSN]",
		re:          regexp.MustCompile(`\b\d{3}[\- ]\d{2}[\- ]\d{4}\b`),
	},
	{
		category:    model.PIIIPAddress,
		placeholder: "[IP_ADDRESS]",
		re:          regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`),
	},
	{
		category:    model.PIIPhone,
		placeholder: "[PHONE]",
		re:          regexp.MustCompile(`(?:\+?1[\-.\s]?)?(?:\(\d{3}\)|\b\d{3})[\-.\s]?\d{3}[\-.\s]?\d{4}\b`),
	},
}

// maxPasses bounds the fixpoint loop. Every pass that changes the text removes
// at least one digit or '@', so real inputs converge in one or two passes.
const maxPasses = 4

// Redactor replaces PII spans with fixed placeholders. It is stateless and
// safe for concurrent use.
type Redactor struct{}

func NewRedactor() *Redactor { return &Redactor{} }

// Redact returns the redacted text and a report. Match offsets refer to the
// input text. Re-running Redact on its own output returns it unchanged.
func (r *Redactor) Redact(text string) (string, model.RedactionReport, error) {
	if !utf8.ValidString(text) {
		return "", model.RedactionReport{}, fmt.Errorf("%w: %v", domain.ErrInput, model.ValidationMalformedText)
	}

	report := model.RedactionReport{Counts: map[model.PIICategory]int{}}
	out := text
	for pass := 0; pass < maxPasses; pass++ {
		matches := findMatches(out)
		if len(matches) == 0 {
			break
		}
		if pass == 0 {
			report.Matches = matches
		}
		for _, m := range matches {
			report.Counts[m.Category]++
		}
		out = replaceMatches(out, matches)
	}
	report.RedactedText = out

	for cat, n := range report.Counts {
		metrics.AddRedactions(string(cat), n)
	}
	return out, report, nil
}

func findMatches(text string) []model.PIIMatch {
	var claimed []model.PIIMatch
	for _, p := range piiPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if p.validate != nil && !p.validate(text[loc[0]:loc[1]]) {
				continue
			}
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, model.PIIMatch{Category: p.category, Start: loc[0], End: loc[1]})
		}
	}
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].Start < claimed[j].Start })
	return claimed
}

func overlaps(claimed []model.PIIMatch, start, end int) bool {
	for _, c := range claimed {
		if start < c.End && c.Start < end {
			return true
		}
	}
	return false
}

func replaceMatches(text string, matches []model.PIIMatch) string {
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, m := range matches {
		b.WriteString(text[prev:m.Start])
		b.WriteString(placeholderFor(m.Category))
		prev = m.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

func placeholderFor(c model.PIICategory) string {
	for _, p := range piiPatterns {
		if p.category == c {
			return p.placeholder
		}
	}
	return "[REDACTED]"
}

// luhnValid checks the card checksum over the digits in s.
func luhnValid(s string) bool {
	sum, n := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if n%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		n++
	}
	return n >= 13 && sum%10 == 0
}
