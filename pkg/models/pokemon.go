package models

// NamedResource is a PokeAPI name/url reference.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Stat is a single base stat entry.
type Stat struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// Ability is an ability slot.
type Ability struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// TypeSlot is an entry of the ordered types list.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// Sprites holds the sprite URLs the gateway cares about.
type Sprites struct {
	FrontDefault string `json:"front_default"`
}

// Pokemon is the subset of a PokeAPI detail record used for insight prompts
// and fallback templates. The full upstream payload is kept separately.
type Pokemon struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Stats     []Stat     `json:"stats"`
	Types     []TypeSlot `json:"types"`
	Abilities []Ability  `json:"abilities"`
	Height    int        `json:"height"`
	Weight    int        `json:"weight"`
	Sprites   Sprites    `json:"sprites"`
}

// PrimaryType returns the first listed type name, or "unknown".
func (p Pokemon) PrimaryType() string {
	if len(p.Types) == 0 || p.Types[0].Type.Name == "" {
		return "unknown"
	}
	return p.Types[0].Type.Name
}
