package sentiment

import (
	"context"
	"io/fs"
	"strings"
	"unicode"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
)

var _ adapter.SentimentBackend = (*LexiconBackend)(nil)

// LexiconBackend is a word-list scorer for local/dev runs and tests. It needs
// no network and is deterministic. English words count for every language.
type LexiconBackend struct {
	lexicons map[string]wordList
}

// NewLexiconBackend uses the embedded word lists.
func NewLexiconBackend() *LexiconBackend {
	lx, err := LoadLexicons(embeddedLexicons)
	if err != nil {
		panic(err)
	}
	return &LexiconBackend{lexicons: lx}
}

// NewLexiconBackendFS loads word lists from fsys instead.
func NewLexiconBackendFS(fsys fs.FS) (*LexiconBackend, error) {
	lx, err := LoadLexicons(fsys)
	if err != nil {
		return nil, err
	}
	return &LexiconBackend{lexicons: lx}, nil
}

func (l *LexiconBackend) Name() string { return "lexicon" }

func (l *LexiconBackend) Classify(ctx context.Context, text, language string) (model.Classification, error) {
	if err := ctx.Err(); err != nil {
		return model.Classification{}, classifyContextError(err)
	}
	lists := []wordList{l.lexicons[defaultLexicon]}
	if lx, ok := l.lexicons[language]; ok && language != defaultLexicon {
		lists = append(lists, lx)
	}
	var pos, neg float64
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		for _, lx := range lists {
			if _, ok := lx.positive[w]; ok {
				pos++
				break
			}
			if _, ok := lx.negative[w]; ok {
				neg++
				break
			}
		}
	}
	return scoreCounts(pos, neg), nil
}

func (l *LexiconBackend) Ping(context.Context) error { return nil }

func scoreCounts(pos, neg float64) model.Classification {
	scores := map[model.Sentiment]float64{}
	total := pos + neg
	switch {
	case total == 0:
		scores[model.SentimentNeutral] = 0.9
		scores[model.SentimentPositive] = 0.05
		scores[model.SentimentNegative] = 0.05
		scores[model.SentimentMixed] = 0
	case pos > 0 && neg > 0 && pos == neg:
		scores[model.SentimentMixed] = 0.7
		scores[model.SentimentPositive] = 0.15
		scores[model.SentimentNegative] = 0.15
		scores[model.SentimentNeutral] = 0
	default:
		p := pos / total
		n := neg / total
		scores[model.SentimentPositive] = round2(p * 0.95)
		scores[model.SentimentNegative] = round2(n * 0.95)
		scores[model.SentimentNeutral] = 0.05
		scores[model.SentimentMixed] = 0
		if pos > 0 && neg > 0 {
			scores[model.SentimentMixed] = 0.05
			scores[model.SentimentNeutral] = 0
		}
	}
	label := model.SentimentNeutral
	best := -1.0
	for _, s := range model.Sentiments {
		if scores[s] > best {
			best = scores[s]
			label = s
		}
	}
	return model.Classification{Label: label, Scores: scores}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
