package game

import "strings"

const (
	CardTypePrompt   = "prompt"
	CardTypeResponse = "response"
)

var cardTypeAliases = map[string]string{
	"prompt":   CardTypePrompt,
	"black":    CardTypePrompt,
	"question": CardTypePrompt,
	"response": CardTypeResponse,
	"white":    CardTypeResponse,
	"answer":   CardTypeResponse,
}

// NormalizeCardType lowercases t and folds the black/white and
// question/answer aliases. Unknown types pass through lowercased so templates
// can declare their own.
func NormalizeCardType(t string) string {
	key := strings.ToLower(strings.TrimSpace(t))
	if canonical, ok := cardTypeAliases[key]; ok {
		return canonical
	}
	return key
}

func IsValidCardType(t string) bool {
	if t == "" || len(t) > 32 {
		return false
	}
	for _, r := range t {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}
