package game

// StockTemplateSlug is the prompt/response party game every installation
// ships with.
const StockTemplateSlug = "prompt-response"

// StockTemplates returns the templates seeded into an empty store.
func StockTemplates() []Template {
	return []Template{
		{
			ID:          "7b0c3b8e-3f1d-4a8e-9a55-2f6f1c9d0a01",
			Name:        "Prompt & Response",
			Slug:        StockTemplateSlug,
			IconEmoji:   "🃏",
			Description: "One player reads a prompt card, everyone else answers with response cards, the reader picks a favourite.",
			CardTypes:   []string{CardTypePrompt, CardTypeResponse},
			BaseConfig: map[string]any{
				"description": "Fill in the blanks with the funniest answer.",
				"minPlayers":  3,
				"maxPlayers":  10,
				"handSize":    10,
				"pointsToWin": 7,
				"decks": map[string]any{
					CardTypePrompt:   map[string]any{"role": "prompt", "drawPerRound": 1},
					CardTypeResponse: map[string]any{"role": "hand", "refillTo": 10},
				},
				"slots": []any{
					map[string]any{"id": "prompt", "deck": CardTypePrompt, "visibility": "public"},
					map[string]any{"id": "hand", "deck": CardTypeResponse, "visibility": "owner"},
				},
				"phases": []any{
					map[string]any{"id": "reveal", "next": "submit"},
					map[string]any{"id": "submit", "next": "judge"},
					map[string]any{"id": "judge", "next": "score"},
					map[string]any{"id": "score", "next": "reveal"},
				},
			},
			EditorHints: map[string]any{
				"promptPlaceholder":   "Use ___ for each blank.",
				"responsePlaceholder": "A short, punchy answer.",
			},
		},
	}
}
