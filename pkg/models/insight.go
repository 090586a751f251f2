package models

// Language selects the language of generated and fallback text.
type Language string

const (
	LangPT Language = "pt"
	LangEN Language = "en"
	LangES Language = "es"

	DefaultLanguage = LangPT
)

// ParseLanguage normalizes a query value. Unsupported values map to DefaultLanguage.
func ParseLanguage(s string) Language {
	switch l := Language(normalizeOption(s)); l {
	case LangPT, LangEN, LangES:
		return l
	default:
		return DefaultLanguage
	}
}

// Format selects the markup of generated text.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"

	DefaultFormat = FormatMarkdown
)

// ParseFormat normalizes a query value. Unsupported values map to DefaultFormat.
func ParseFormat(s string) Format {
	switch f := Format(normalizeOption(s)); f {
	case FormatMarkdown, FormatHTML, FormatText:
		return f
	default:
		return DefaultFormat
	}
}

// InsightSource records where an insight's text came from.
type InsightSource string

const (
	SourceAI       InsightSource = "ai"
	SourceFallback InsightSource = "fallback"
)

// FallbackModel is reported as modelUsed when the template was served.
const FallbackModel = "fallback-template"

// InsightResult is the cached and returned body of the insight endpoint.
type InsightResult struct {
	PokemonName string        `json:"pokemonName"`
	Text        string        `json:"text"`
	AudioBase64 string        `json:"audioBase64,omitempty"`
	Source      InsightSource `json:"source"`
	ModelUsed   string        `json:"modelUsed"`
	Lang        Language      `json:"lang"`
	Format      Format        `json:"format"`
}
