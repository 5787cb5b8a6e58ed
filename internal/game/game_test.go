package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountBlanks(t *testing.T) {
	cases := map[string]int{
		"":                       0,
		"a_b":                    1,
		"a__b___c":               2,
		"____":                   1,
		"no blanks here":         0,
		"_ and _ and _":          3,
		"Why did ___ cross ___?": 2,
	}
	for text, want := range cases {
		assert.Equal(t, want, CountBlanks(text), "text %q", text)
	}
}

func TestDefaultPick(t *testing.T) {
	assert.Equal(t, 2, DefaultPick(0, "Why did ___ cross the road because ___?"))
	assert.Equal(t, 1, DefaultPick(0, "What's that smell?"))
	assert.Equal(t, 1, DefaultPick(-3, "no blanks"))
	assert.Equal(t, 3, DefaultPick(3, "only ___ one blank"), "declared pick is authoritative")
}

func TestNormalizeCardType(t *testing.T) {
	assert.Equal(t, CardTypePrompt, NormalizeCardType("Black"))
	assert.Equal(t, CardTypePrompt, NormalizeCardType(" question "))
	assert.Equal(t, CardTypeResponse, NormalizeCardType("WHITE"))
	assert.Equal(t, "wildcard", NormalizeCardType("Wildcard"))
	assert.True(t, IsValidCardType("wild-card_2"))
	assert.False(t, IsValidCardType("wild card"))
	assert.False(t, IsValidCardType(""))
}

func TestPropertiesJSONKeepsExtras(t *testing.T) {
	var props Properties
	require.NoError(t, json.Unmarshal([]byte(`{"text":"Hello ___","pick":1,"rating":"pg","tags":["a"]}`), &props))

	assert.Equal(t, "Hello ___", props.Text)
	assert.Equal(t, 1, props.Pick)
	assert.Equal(t, "pg", props.Extra["rating"])

	data, err := json.Marshal(props)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"text": "Hello ___", "pick": float64(1), "rating": "pg", "tags": []any{"a"}}, decoded)
}

func TestPropertiesRejectsBadPick(t *testing.T) {
	var props Properties
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x","pick":"two"}`), &props))
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x","pick":1.5}`), &props))
	assert.Error(t, json.Unmarshal([]byte(`{"text":3}`), &props))
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x","pick":1e300}`), &props))
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x","pick":11}`), &props))
}

func TestPropertiesPickBounds(t *testing.T) {
	var props Properties
	require.NoError(t, json.Unmarshal([]byte(`{"text":"x","pick":10}`), &props))
	assert.Equal(t, MaxPick, props.Pick)

	require.NoError(t, json.Unmarshal([]byte(`{"text":"x ___","pick":-1e300}`), &props))
	assert.Equal(t, 0, props.Pick)
	assert.Equal(t, 1, DefaultPick(props.Pick, props.Text))
}

func TestPropertiesOmitsUnsetPick(t *testing.T) {
	data, err := json.Marshal(Properties{Text: "an answer", Extra: map[string]any{"pick": 4}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"an answer"}`, string(data))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusTesting))
	assert.True(t, CanTransition(StatusDraft, StatusPublished))
	assert.True(t, CanTransition(StatusPublished, StatusArchived))
	assert.False(t, CanTransition(StatusArchived, StatusPublished))
	assert.False(t, CanTransition(StatusDraft, StatusDraft))

	_, ok := ParseStatus("DELETED")
	assert.False(t, ok)
	assert.False(t, StatusArchived.Playable())
	assert.True(t, StatusTesting.Playable())
}

func TestCloneConfigIsDeep(t *testing.T) {
	src := map[string]any{"decks": map[string]any{"a": 1}, "slots": []any{map[string]any{"id": "x"}}}
	clone := CloneConfig(src)

	clone["decks"].(map[string]any)["a"] = 2
	clone["slots"].([]any)[0].(map[string]any)["id"] = "y"

	assert.Equal(t, 1, src["decks"].(map[string]any)["a"])
	assert.Equal(t, "x", src["slots"].([]any)[0].(map[string]any)["id"])
}

func TestTemplateDeclaresCardType(t *testing.T) {
	tmpl := StockTemplates()[0]
	assert.True(t, tmpl.DeclaresCardType(CardTypePrompt))
	assert.False(t, tmpl.DeclaresCardType("wildcard"))
	assert.True(t, Template{}.DeclaresCardType("anything"))
}
