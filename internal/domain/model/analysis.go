package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTextLengthSync  = 5000
	MaxTextLengthAsync = 1 << 20
	MaxBatchSize       = 100
	DefaultLanguage    = "en"
)

// Sentiment is the label returned by a backend.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// Sentiments lists every label in a stable order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

// ParseSentiment accepts any casing of a known label.
func ParseSentiment(s string) (Sentiment, bool) {
	v := Sentiment(strings.ToUpper(strings.TrimSpace(s)))
	return v, v.Valid()
}

// Detail controls how much of the classification is returned.
type Detail string

const (
	DetailBasic Detail = "basic"
	DetailFull  Detail = "full"
)

// Options are the caller-tunable analysis knobs. Only fields that change the
// output take part in the fingerprint.
type Options struct {
	Detail Detail `json:"detail,omitempty"`
}

func (o Options) Normalized() Options {
	if o.Detail == "" {
		o.Detail = DetailBasic
	}
	o.Detail = Detail(strings.ToLower(string(o.Detail)))
	return o
}

func (o Options) Valid() bool {
	switch o.Normalized().Detail {
	case DetailBasic, DetailFull:
		return true
	}
	return false
}

var supportedLanguages = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {},
	"pt": {}, "zh": {}, "ja": {}, "ko": {}, "ar": {},
}

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// NormalizeLanguage lower-cases the hint and applies the default.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func SupportedLanguage(lang string) bool {
	if !languagePattern.MatchString(lang) {
		return false
	}
	_, ok := supportedLanguages[lang]
	return ok
}

// AnalysisRequest is a single unit of text to classify.
type AnalysisRequest struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Options  Options `json:"options,omitempty"`
}

// Validate checks the request against maxLen (in runes) and returns a
// normalized copy. The returned error is one of the Validation* values.
func (r AnalysisRequest) Validate(maxLen int) (AnalysisRequest, error) {
	if !utf8.ValidString(r.Text) {
		return r, ValidationMalformedText
	}
	if strings.TrimSpace(r.Text) == "" {
		return r, ValidationEmptyText
	}
	if utf8.RuneCountInString(r.Text) > maxLen {
		return r, ValidationTextTooLong
	}
	if len(ScreenText(r.Text)) > 0 {
		return r, ValidationUnsafeText
	}
	r.Language = NormalizeLanguage(r.Language)
	if !SupportedLanguage(r.Language) {
		return r, ValidationLanguage
	}
	if !r.Options.Valid() {
		return r, ValidationOptions
	}
	r.Options = r.Options.Normalized()
	return r, nil
}

// ValidationError describes why a request was rejected.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ValidationMalformedText ValidationError = "text is not valid UTF-8"
	ValidationEmptyText     ValidationError = "text cannot be empty"
	ValidationTextTooLong   ValidationError = "text exceeds maximum length"
	ValidationLanguage      ValidationError = "unsupported language code"
	ValidationOptions       ValidationError = "unsupported options"
	ValidationBatchSize     ValidationError = "item count out of bounds"
	ValidationMode          ValidationError = "mode must be sync or async"
	ValidationUnsafeText    ValidationError = "text contains potentially malicious content"
)

// Classification is what an inference backend returns for one text.
type Classification struct {
	Label  Sentiment             `json:"label"`
	Scores map[Sentiment]float64 `json:"scores"`
}

// Confidence is the score of the winning label.
func (c Classification) Confidence() float64 {
	return c.Scores[c.Label]
}

// AnalysisResult is the sync dispatcher's answer.
type AnalysisResult struct {
	RequestID      string
	Language       string
	Classification Classification
	Detail         Detail
	CacheHit       bool
	PIIDetected    bool
	ProcessingTime time.Duration
	CompletedAt    time.Time
}
