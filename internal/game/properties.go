package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
)

// Properties is a card's attribute bag: text is always present, pick is set
// on prompt cards, and anything game-specific lives in Extra.
type Properties struct {
	Text  string
	Pick  int
	Extra map[string]any
}

func (p Properties) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+2)
	maps.Copy(out, p.Extra)
	out["text"] = p.Text
	if p.Pick > 0 {
		out["pick"] = p.Pick
	} else {
		delete(out, "pick")
	}
	return json.Marshal(out)
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("properties must be an object: %w", err)
	}
	next := Properties{}
	if value, ok := raw["text"]; ok {
		if err := json.Unmarshal(value, &next.Text); err != nil {
			return errors.New("properties.text must be a string")
		}
	}
	if value, ok := raw["pick"]; ok && string(value) != "null" {
		var pick float64
		if err := json.Unmarshal(value, &pick); err != nil {
			return errors.New("properties.pick must be a number")
		}
		if pick != math.Trunc(pick) {
			return errors.New("properties.pick must be an integer")
		}
		if pick > MaxPick {
			return fmt.Errorf("properties.pick must be at most %d", MaxPick)
		}
		// Non-positive picks are derived from the text later.
		if pick > 0 {
			next.Pick = int(pick)
		}
	}
	for key, value := range raw {
		if key == "text" || key == "pick" {
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if next.Extra == nil {
			next.Extra = make(map[string]any)
		}
		next.Extra[key] = decoded
	}
	*p = next
	return nil
}

// Clone returns a copy whose Extra map can be modified independently.
func (p Properties) Clone() Properties {
	out := p
	if p.Extra != nil {
		out.Extra = maps.Clone(p.Extra)
	}
	return out
}
