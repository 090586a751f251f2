package insight

import (
	"fmt"
	"strings"

	"github.com/pario-ai/pokegate/pkg/models"
)

type phrasing struct {
	system   string
	intro    string
	types    string
	stats    string
	abil     string
	tip      string
	lore     string
	language string
}

var phrasings = map[models.Language]phrasing{
	models.LangPT: {
		system:   "Você é o Professor Carvalho, o renomado pesquisador Pokémon. Mantenha um tom encorajador, sábio e acadêmico.",
		intro:    "Forneça uma análise breve, profissional e estratégica para o Pokémon %s.",
		types:    "Tipos",
		stats:    "Atributos",
		abil:     "Habilidades",
		tip:      "Uma \"Dica Estratégica de Batalha\".",
		lore:     "Uma \"Curiosidade de Pesquisa (Lore)\".",
		language: "A sua resposta deve ser OBRIGATORIAMENTE EM PORTUGUÊS.",
	},
	models.LangEN: {
		system:   "You are Professor Oak, the renowned Pokémon researcher. Keep an encouraging, wise and academic tone.",
		intro:    "Give a brief, professional and strategic analysis of the Pokémon %s.",
		types:    "Types",
		stats:    "Stats",
		abil:     "Abilities",
		tip:      "A \"Battle Strategy Tip\".",
		lore:     "A \"Research Curiosity (Lore)\".",
		language: "Your answer MUST be in ENGLISH.",
	},
	models.LangES: {
		system:   "Eres el Profesor Oak, el renombrado investigador Pokémon. Mantén un tono alentador, sabio y académico.",
		intro:    "Proporciona un análisis breve, profesional y estratégico del Pokémon %s.",
		types:    "Tipos",
		stats:    "Atributos",
		abil:     "Habilidades",
		tip:      "Un \"Consejo Estratégico de Batalla\".",
		lore:     "Una \"Curiosidad de Investigación (Lore)\".",
		language: "Tu respuesta DEBE estar en ESPAÑOL.",
	},
}

var formatHints = map[models.Format]string{
	models.FormatMarkdown: "Use markdown for formatting.",
	models.FormatHTML:     "Format the answer as an HTML fragment without <html> or <body> tags.",
	models.FormatText:     "Answer in plain text without any markup.",
}

func phrasingFor(lang models.Language) phrasing {
	if ph, ok := phrasings[lang]; ok {
		return ph
	}
	return phrasings[models.DefaultLanguage]
}

func systemPrompt(lang models.Language) string {
	return phrasingFor(lang).system
}

// BuildPrompt renders the user prompt for p.
func BuildPrompt(p models.Pokemon, lang models.Language, format models.Format) string {
	ph := phrasingFor(lang)

	types := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		types = append(types, t.Type.Name)
	}
	stats := make([]string, 0, len(p.Stats))
	for _, s := range p.Stats {
		stats = append(stats, fmt.Sprintf("%s: %d", s.Stat.Name, s.BaseStat))
	}
	abilities := make([]string, 0, len(p.Abilities))
	for _, a := range p.Abilities {
		abilities = append(abilities, a.Ability.Name)
	}

	hint, ok := formatHints[format]
	if !ok {
		hint = formatHints[models.DefaultFormat]
	}

	var b strings.Builder
	fmt.Fprintf(&b, ph.intro+"\n", strings.ToUpper(p.Name))
	fmt.Fprintf(&b, "%s: %s\n", ph.types, strings.Join(types, ", "))
	fmt.Fprintf(&b, "%s: %s\n", ph.stats, strings.Join(stats, ", "))
	fmt.Fprintf(&b, "%s: %s\n\n", ph.abil, strings.Join(abilities, ", "))
	b.WriteString(ph.language + "\n")
	fmt.Fprintf(&b, "1. %s\n2. %s\n\n", ph.tip, ph.lore)
	b.WriteString(hint)
	return b.String()
}
