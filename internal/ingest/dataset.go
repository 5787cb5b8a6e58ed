// Package ingest turns a raw card dataset into a single official card pack.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
)

// Dataset is the raw card source. Prompt and response entries are kept raw so
// that one malformed row can be skipped without rejecting the whole file.
type Dataset struct {
	Responses []json.RawMessage `json:"responses"`
	Prompts   []json.RawMessage `json:"prompts"`
	Packs     []DatasetPack     `json:"packs"`
}

type DatasetPack struct {
	Name            string `json:"name"`
	ResponseIndices []int  `json:"responseIndices"`
	PromptIndices   []int  `json:"promptIndices"`
	Official        bool   `json:"official"`
}

// UnmarshalJSON also accepts the white/black field names used by most
// published card dumps.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw struct {
		Responses []json.RawMessage `json:"responses"`
		White     []json.RawMessage `json:"white"`
		Prompts   []json.RawMessage `json:"prompts"`
		Black     []json.RawMessage `json:"black"`
		Packs     []DatasetPack     `json:"packs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Responses = firstNonNil(raw.Responses, raw.White)
	d.Prompts = firstNonNil(raw.Prompts, raw.Black)
	d.Packs = raw.Packs
	return nil
}

func (p *DatasetPack) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name            string `json:"name"`
		ResponseIndices []int  `json:"responseIndices"`
		White           []int  `json:"white"`
		PromptIndices   []int  `json:"promptIndices"`
		Black           []int  `json:"black"`
		Official        bool   `json:"official"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Name = raw.Name
	p.ResponseIndices = firstNonNil(raw.ResponseIndices, raw.White)
	p.PromptIndices = firstNonNil(raw.PromptIndices, raw.Black)
	p.Official = raw.Official
	return nil
}

func firstNonNil[T any](primary, alias []T) []T {
	if primary != nil {
		return primary
	}
	return alias
}

// Decode reads a dataset. Any read or parse failure is fatal.
func Decode(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}
