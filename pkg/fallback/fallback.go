// Package fallback renders the templated insight served when every
// generative attempt has failed.
package fallback

import (
	"fmt"

	"github.com/pario-ai/pokegate/pkg/models"
)

var templates = map[models.Language]string{
	models.LangPT: "### Análise de Emergência: %[1]s\n\n" +
		"Os sistemas do Professor estão instáveis. Dados básicos:\n" +
		"- **Tipo:** %[2]s\n" +
		"- **Estratégia:** Monitore os atributos básicos.\n" +
		"- **Lore:** Sem dados de lore disponíveis no momento offline.",
	models.LangEN: "### Emergency Analysis: %[1]s\n\n" +
		"Professor's systems unstable. Basic data:\n" +
		"- **Type:** %[2]s\n" +
		"- **Strategy:** Watch base stats closely.\n" +
		"- **Lore:** No lore data available offline.",
	models.LangES: "### Análisis de Emergencia: %[1]s\n\n" +
		"Sistemas del Profesor inestables. Datos básicos:\n" +
		"- **Tipo:** %[2]s\n" +
		"- **Estrategia:** Monitorea los atributos básicos.\n" +
		"- **Lore:** Sin datos de historia disponibles offline.",
}

// Generate returns the fallback text for p in lang. Unsupported languages
// use the models.DefaultLanguage template.
func Generate(p models.Pokemon, lang models.Language) string {
	tmpl, ok := templates[lang]
	if !ok {
		tmpl = templates[models.DefaultLanguage]
	}
	return fmt.Sprintf(tmpl, p.Name, p.PrimaryType())
}
