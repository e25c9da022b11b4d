package sentiment

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

const systemPrompt = `You are a sentiment classifier. Reply with a single JSON object and nothing else:
{"label":"POSITIVE|NEGATIVE|NEUTRAL|MIXED","scores":{"POSITIVE":0.0,"NEGATIVE":0.0,"NEUTRAL":0.0,"MIXED":0.0}}
Scores are probabilities in [0,1]. Placeholders such as [EMAIL] or [SSN] stand for removed personal data; ignore them.`

func userPrompt(text, language string) string {
	return fmt.Sprintf("Language: %s\nText:\n%s", language, text)
}

// parseClassification extracts the JSON object from a model reply. Replies
// wrapped in prose or code fences are tolerated.
func parseClassification(reply string) (model.Classification, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return model.Classification{}, fmt.Errorf("%w: reply has no json object", domain.ErrBackendUnavailable)
	}
	raw := reply[start : end+1]
	if !gjson.Valid(raw) {
		return model.Classification{}, fmt.Errorf("%w: reply is not valid json", domain.ErrBackendUnavailable)
	}

	doc := gjson.Parse(raw)
	label, ok := model.ParseSentiment(doc.Get("label").String())
	if !ok {
		return model.Classification{}, fmt.Errorf("%w: unknown label %q", domain.ErrBackendUnavailable, doc.Get("label").String())
	}
	scores := make(map[model.Sentiment]float64, len(model.Sentiments))
	doc.Get("scores").ForEach(func(k, v gjson.Result) bool {
		if s, ok := model.ParseSentiment(k.String()); ok {
			scores[s] = clamp01(v.Float())
		}
		return true
	})
	if len(scores) == 0 {
		scores[label] = 1
	}
	return model.Classification{Label: label, Scores: scores}, nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
