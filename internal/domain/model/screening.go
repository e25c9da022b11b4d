package model

import "regexp"

// ThreatKind names the family of an injection signature.
type ThreatKind string

const (
	ThreatSQLInjection     ThreatKind = "sql_injection"
	ThreatScriptInjection  ThreatKind = "xss"
	ThreatCommandInjection ThreatKind = "command_injection"
)

type threatPattern struct {
	kind ThreatKind
	re   *regexp.Regexp
}

// Signatures need statement shape, not a lone keyword or punctuation mark, so
// reviews that say "select", "drop" or "$19.99; shipped" still pass.
var threatPatterns = []threatPattern{
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+(table|database|schema)\s+\w+`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\bselect\s+(\*|[\w.]+(\s*,\s*[\w.]+)+)\s+from\b`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\binsert\s+into\s+\w+\s*(\(|values\b)`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\bdelete\s+from\s+\w+\s+where\b`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*=\s*['"]?\w+`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+\b`)},
	{ThreatSQLInjection, regexp.MustCompile(`'\s*;?\s*(--|/\*)`)},
	{ThreatSQLInjection, regexp.MustCompile(`(?i)\bexec(ute)?\s+(xp_|sp_)\w+`)},

	{ThreatScriptInjection, regexp.MustCompile(`(?i)<script[^>]*>`)},
	{ThreatScriptInjection, regexp.MustCompile(`(?i)javascript\s*:`)},
	{ThreatScriptInjection, regexp.MustCompile(`(?i)<[a-z][^>]*\son\w+\s*=`)},
	{ThreatScriptInjection, regexp.MustCompile(`(?i)<(iframe|object|embed)\b`)},

	{ThreatCommandInjection, regexp.MustCompile(`(?i)(;|&&|\|\|?|` + "`" + `|\$\()\s*(whoami|pwd|uname|id)\s*(;|&|\||` + "`" + `|\)|$)`)},
	{ThreatCommandInjection, regexp.MustCompile(`(?i)(;|&&|\|\|?|` + "`" + `|\$\()\s*(cat|ls|rm|curl|wget|bash|sh|nc|ping|nslookup|traceroute)\s+(-|/|~|\$|\w+://)`)},
}

// ScreenText returns the threat families text matches, in table order and
// without duplicates. Nil means the text looks safe.
func ScreenText(text string) []ThreatKind {
	var found []ThreatKind
	for _, p := range threatPatterns {
		if len(found) > 0 && found[len(found)-1] == p.kind {
			continue
		}
		if p.re.MatchString(text) {
			found = append(found, p.kind)
		}
	}
	return found
}
