package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"cardforge/internal/apperr"
	"cardforge/internal/game"
)

// Memory is a mutex-guarded in-process Store. It enforces the same unique
// constraints as the SQL schema: template slug, (creator, slug), share token
// and room code.
type Memory struct {
	mu          sync.Mutex
	nextSeq     int
	templates   map[string]game.Template
	definitions map[string]game.Definition
	packs       map[string]game.Pack
	cards       map[string]memoryCard
	sessions    map[string]game.Session
}

type memoryCard struct {
	card game.Card
	seq  int
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store seeded with the given templates.
func NewMemory(templates ...game.Template) *Memory {
	m := &Memory{
		templates:   make(map[string]game.Template),
		definitions: make(map[string]game.Definition),
		packs:       make(map[string]game.Pack),
		cards:       make(map[string]memoryCard),
		sessions:    make(map[string]game.Session),
	}
	for _, tmpl := range templates {
		m.templates[tmpl.ID] = tmpl
	}
	return m
}

func (m *Memory) ListTemplates(_ context.Context) ([]game.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]game.Template, 0, len(m.templates))
	for _, tmpl := range m.templates {
		list = append(list, copyTemplate(tmpl))
	}
	slices.SortFunc(list, func(a, b game.Template) int { return cmp.Compare(a.Slug, b.Slug) })
	return list, nil
}

func (m *Memory) GetTemplate(_ context.Context, id string) (game.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tmpl, ok := m.templates[id]
	if !ok {
		return game.Template{}, apperr.NotFound("template not found")
	}
	return copyTemplate(tmpl), nil
}

func (m *Memory) GetTemplateBySlug(_ context.Context, slug string) (game.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tmpl := range m.templates {
		if tmpl.Slug == slug {
			return copyTemplate(tmpl), nil
		}
	}
	return game.Template{}, apperr.NotFound("template not found")
}

func (m *Memory) CreateDefinition(_ context.Context, def game.Definition, core game.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[def.TemplateID]; !ok {
		return apperr.NotFound("template not found")
	}
	for _, existing := range m.definitions {
		if existing.CreatorID == def.CreatorID && existing.Slug == def.Slug {
			return ErrSlugTaken
		}
		if existing.ShareToken == def.ShareToken || existing.ID == def.ID {
			return apperr.Conflict("definition already exists")
		}
	}
	now := timeNowUTC()
	def.CreatedAt = now
	def.UpdatedAt = now
	def.GameConfig = game.CloneConfig(def.GameConfig)
	m.definitions[def.ID] = def
	core.DefinitionID = def.ID
	m.insertPackLocked(core)
	return nil
}

func (m *Memory) GetDefinition(_ context.Context, id string) (game.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.definitions[id]
	if !ok {
		return game.Definition{}, apperr.NotFound("definition not found")
	}
	return copyDefinition(def), nil
}

func (m *Memory) GetDefinitionByShareToken(_ context.Context, token string) (game.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, def := range m.definitions {
		if def.ShareToken == token {
			return copyDefinition(def), nil
		}
	}
	return game.Definition{}, apperr.NotFound("game not found")
}

func (m *Memory) ListDefinitions(_ context.Context, creatorID string, page, perPage int) ([]game.Definition, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []game.Definition
	for _, def := range m.definitions {
		if def.CreatorID == creatorID {
			owned = append(owned, copyDefinition(def))
		}
	}
	slices.SortFunc(owned, func(a, b game.Definition) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	total := int64(len(owned))
	start := (page - 1) * perPage
	if start < 0 || start >= len(owned) {
		return []game.Definition{}, total, nil
	}
	end := min(start+perPage, len(owned))
	return owned[start:end], total, nil
}

func (m *Memory) UpdateDefinition(_ context.Context, def game.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.definitions[def.ID]
	if !ok {
		return apperr.NotFound("definition not found")
	}
	for _, existing := range m.definitions {
		if existing.ID != def.ID && existing.CreatorID == current.CreatorID && existing.Slug == def.Slug {
			return ErrSlugTaken
		}
	}
	current.Name = def.Name
	current.Slug = def.Slug
	current.Description = def.Description
	current.Status = def.Status
	current.GameConfig = game.CloneConfig(def.GameConfig)
	current.MinPlayers = def.MinPlayers
	current.MaxPlayers = def.MaxPlayers
	current.UpdatedAt = timeNowUTC()
	m.definitions[def.ID] = current
	return nil
}

func (m *Memory) IncrementPlayCount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.definitions[id]
	if !ok {
		return apperr.NotFound("definition not found")
	}
	def.PlayCount++
	m.definitions[id] = def
	return nil
}

func (m *Memory) CreatePack(_ context.Context, pack game.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.definitions[pack.DefinitionID]; !ok {
		return apperr.NotFound("definition not found")
	}
	if _, ok := m.packs[pack.ID]; ok {
		return apperr.Conflict("pack already exists")
	}
	for _, card := range pack.Cards {
		if _, ok := m.cards[card.ID]; ok {
			return apperr.Conflict("card already exists")
		}
	}
	m.insertPackLocked(pack)
	return nil
}

func (m *Memory) insertPackLocked(pack game.Pack) {
	cards := pack.Cards
	pack.Cards = nil
	m.packs[pack.ID] = pack
	for _, card := range cards {
		card.PackID = pack.ID
		m.insertCardLocked(card)
	}
}

func (m *Memory) insertCardLocked(card game.Card) {
	m.nextSeq++
	card.Properties = card.Properties.Clone()
	m.cards[card.ID] = memoryCard{card: card, seq: m.nextSeq}
}

func (m *Memory) GetPack(_ context.Context, id string) (game.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pack, ok := m.packs[id]
	if !ok {
		return game.Pack{}, apperr.NotFound("pack not found")
	}
	pack.Cards = m.packCardsLocked(id)
	return pack, nil
}

func (m *Memory) ListPacks(_ context.Context, definitionID string) ([]game.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []game.Pack
	for _, pack := range m.packs {
		if pack.DefinitionID != definitionID {
			continue
		}
		pack.Cards = m.packCardsLocked(pack.ID)
		list = append(list, pack)
	}
	slices.SortFunc(list, func(a, b game.Pack) int {
		if a.IsCore != b.IsCore {
			if a.IsCore {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return list, nil
}

func (m *Memory) packCardsLocked(packID string) []game.Card {
	var entries []memoryCard
	for _, entry := range m.cards {
		if entry.card.PackID == packID {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b memoryCard) int {
		if c := cmp.Compare(a.card.SortOrder, b.card.SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	cards := make([]game.Card, 0, len(entries))
	for _, entry := range entries {
		card := entry.card
		card.Properties = card.Properties.Clone()
		cards = append(cards, card)
	}
	return cards
}

func (m *Memory) DeletePack(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packs[id]; !ok {
		return apperr.NotFound("pack not found")
	}
	delete(m.packs, id)
	for cardID, entry := range m.cards {
		if entry.card.PackID == id {
			delete(m.cards, cardID)
		}
	}
	return nil
}

func (m *Memory) ApplyCardChanges(_ context.Context, packID string, changes CardChanges) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packs[packID]; !ok {
		return 0, apperr.NotFound("pack not found")
	}
	for _, card := range changes.Create {
		if _, ok := m.cards[card.ID]; ok {
			return 0, apperr.Conflict("card already exists")
		}
	}

	deleted := 0
	for _, id := range changes.Delete {
		entry, ok := m.cards[id]
		if !ok || entry.card.PackID != packID {
			continue
		}
		delete(m.cards, id)
		deleted++
	}
	for _, card := range changes.Update {
		entry, ok := m.cards[card.ID]
		if !ok || entry.card.PackID != packID {
			continue
		}
		card.PackID = packID
		card.Properties = card.Properties.Clone()
		entry.card = card
		m.cards[card.ID] = entry
	}
	for _, card := range changes.Create {
		card.PackID = packID
		m.insertCardLocked(card)
	}
	return deleted, nil
}

func (m *Memory) RoomCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[strings.ToUpper(code)]
	return ok, nil
}

func (m *Memory) CreateSession(_ context.Context, session game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(session.RoomCode)
	if _, ok := m.sessions[key]; ok {
		return ErrRoomCodeTaken
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = timeNowUTC()
	}
	session.GameConfig = game.CloneConfig(session.GameConfig)
	m.sessions[key] = session
	return nil
}

func (m *Memory) GetSessionByRoomCode(_ context.Context, code string) (game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[strings.ToUpper(code)]
	if !ok {
		return game.Session{}, apperr.NotFound("session not found")
	}
	session.GameConfig = game.CloneConfig(session.GameConfig)
	return session, nil
}

func copyTemplate(tmpl game.Template) game.Template {
	tmpl.CardTypes = slices.Clone(tmpl.CardTypes)
	tmpl.BaseConfig = game.CloneConfig(tmpl.BaseConfig)
	tmpl.EditorHints = game.CloneConfig(tmpl.EditorHints)
	return tmpl
}

func copyDefinition(def game.Definition) game.Definition {
	def.GameConfig = game.CloneConfig(def.GameConfig)
	return def
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
