// Package fingerprint derives cache keys from redacted analysis input.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

// Version names the normalization rules. Bump it whenever Normalize or the
// canonical document changes so old cache entries can never collide.
const Version = "v1"

const prefix = "fp:" + Version + ":"

// canonical is the hashed document. Field order is fixed by the struct, so
// encoding/json output is deterministic.
type canonical struct {
	Text     string `json:"t"`
	Language string `json:"l"`
	Detail   string `json:"d"`
}

// Engine is stateless and safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Fingerprint hashes already redacted text with the language and the
// output-relevant options. Request metadata never takes part.
func (e *Engine) Fingerprint(redactedText, language string, opts model.Options) model.Fingerprint {
	doc := canonical{
		Text:     Normalize(redactedText),
		Language: model.NormalizeLanguage(language),
		Detail:   string(opts.Normalized().Detail),
	}
	// Marshalling a struct of strings cannot fail.
	b, _ := json.Marshal(doc)
	sum := sha256.Sum256(b)
	return model.Fingerprint(prefix + hex.EncodeToString(sum[:]))
}

// Normalize trims, collapses whitespace runs to a single space and folds case.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Versioned reports whether fp was produced under the current rules.
func Versioned(fp model.Fingerprint) bool {
	return strings.HasPrefix(string(fp), prefix)
}
