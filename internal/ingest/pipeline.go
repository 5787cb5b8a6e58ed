package ingest

import (
	"encoding/json"
	"slices"
	"strings"

	"cardforge/internal/game"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultPackName = "Official"

type Options struct {
	PackName string
	// NewID generates card and pack ids. Defaults to uuid.NewString.
	NewID  func() string
	Logger *zap.Logger
}

// Report counts what a run kept and skipped.
type Report struct {
	Packs         int `json:"packs"`
	OfficialPacks int `json:"officialPacks"`
	Prompts       int `json:"prompts"`
	Responses     int `json:"responses"`
	Skipped       int `json:"skipped"`
}

type Result struct {
	Pack   game.Pack `json:"pack"`
	Report Report    `json:"report"`
}

// Run materializes every prompt and response referenced by an official pack
// into one combined official pack. Indices shared by several packs produce
// one card. Entries without text and indices outside the dataset are skipped
// and counted.
func Run(ds Dataset, opts Options) Result {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.PackName == "" {
		opts.PackName = DefaultPackName
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	report := Report{Packs: len(ds.Packs)}
	promptSet := make(map[int]struct{})
	responseSet := make(map[int]struct{})
	for _, pack := range ds.Packs {
		if !pack.Official {
			continue
		}
		report.OfficialPacks++
		for _, idx := range pack.PromptIndices {
			promptSet[idx] = struct{}{}
		}
		for _, idx := range pack.ResponseIndices {
			responseSet[idx] = struct{}{}
		}
	}

	out := game.Pack{
		ID:       opts.NewID(),
		Name:     opts.PackName,
		Official: true,
		Cards:    []game.Card{},
	}
	sortOrder := 0
	for _, idx := range sortedKeys(promptSet) {
		props, ok := promptAt(ds.Prompts, idx)
		if !ok {
			log.Debug("skipping prompt", zap.Int("index", idx))
			report.Skipped++
			continue
		}
		sortOrder++
		out.Cards = append(out.Cards, game.Card{
			ID:         opts.NewID(),
			PackID:     out.ID,
			Type:       game.CardTypePrompt,
			Properties: props,
			SortOrder:  sortOrder,
		})
		report.Prompts++
	}
	for _, idx := range sortedKeys(responseSet) {
		props, ok := responseAt(ds.Responses, idx)
		if !ok {
			log.Debug("skipping response", zap.Int("index", idx))
			report.Skipped++
			continue
		}
		sortOrder++
		out.Cards = append(out.Cards, game.Card{
			ID:         opts.NewID(),
			PackID:     out.ID,
			Type:       game.CardTypeResponse,
			Properties: props,
			SortOrder:  sortOrder,
		})
		report.Responses++
	}

	log.Info("ingest complete",
		zap.Int("packs", report.Packs),
		zap.Int("official_packs", report.OfficialPacks),
		zap.Int("prompts", report.Prompts),
		zap.Int("responses", report.Responses),
		zap.Int("skipped", report.Skipped),
	)
	return Result{Pack: out, Report: report}
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type promptEntry struct {
	Text *string  `json:"text"`
	Pick *float64 `json:"pick"`
}

// promptAt accepts either a bare string or {text, pick}. A missing or
// non-positive pick is derived from the blanks in the text, and a pick above
// game.MaxPick makes the entry unusable.
func promptAt(entries []json.RawMessage, idx int) (game.Properties, bool) {
	if idx < 0 || idx >= len(entries) {
		return game.Properties{}, false
	}
	raw := entries[idx]
	var text string
	pick := 0
	if err := json.Unmarshal(raw, &text); err != nil {
		var entry promptEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Text == nil {
			return game.Properties{}, false
		}
		text = *entry.Text
		if entry.Pick != nil {
			if *entry.Pick > game.MaxPick {
				return game.Properties{}, false
			}
			if *entry.Pick >= 1 {
				pick = int(*entry.Pick)
			}
		}
	}
	if strings.TrimSpace(text) == "" {
		return game.Properties{}, false
	}
	pick = game.DefaultPick(pick, text)
	return game.Properties{
		Text:  text,
		Pick:  pick,
		Extra: map[string]any{"blanks": pick},
	}, true
}

func responseAt(entries []json.RawMessage, idx int) (game.Properties, bool) {
	if idx < 0 || idx >= len(entries) {
		return game.Properties{}, false
	}
	raw := entries[idx]
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var entry struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return game.Properties{}, false
		}
		text = entry.Text
	}
	if strings.TrimSpace(text) == "" {
		return game.Properties{}, false
	}
	return game.Properties{Text: text}, true
}

// CombinePacks merges packs into a new pack without touching the inputs.
// Cards keep their relative order and are renumbered; a card id seen twice
// is kept once. The result is official only when every input is.
func CombinePacks(id, name string, packs ...game.Pack) game.Pack {
	out := game.Pack{
		ID:       id,
		Name:     name,
		Official: len(packs) > 0,
		Cards:    []game.Card{},
	}
	seen := make(map[string]struct{})
	for _, pack := range packs {
		if !pack.Official {
			out.Official = false
		}
		for _, card := range pack.Cards {
			if _, dup := seen[card.ID]; dup {
				continue
			}
			seen[card.ID] = struct{}{}
			card.PackID = id
			card.Properties = card.Properties.Clone()
			card.SortOrder = len(out.Cards) + 1
			out.Cards = append(out.Cards, card)
		}
	}
	return out
}
