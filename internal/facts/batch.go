package facts

import (
	"bytes"
	"encoding/json"
)

// Entry is one document's fact set within a batch, keyed by the label
// the pipeline assigned it (usually the input filename).
type Entry struct {
	Label string
	Set   FactSet
}

// Batch accumulates fact sets in insertion order. Persistence and
// export both iterate in this order, so results are deterministic for
// a given input sequence.
type Batch struct {
	entries []Entry
	index   map[string]int
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{index: make(map[string]int)}
}

// Add appends a fact set under label. Adding the same label twice
// overwrites the earlier set but keeps its position.
func (b *Batch) Add(label string, set FactSet) {
	if i, ok := b.index[label]; ok {
		b.entries[i].Set = set
		return
	}
	b.index[label] = len(b.entries)
	b.entries = append(b.entries, Entry{Label: label, Set: set})
}

// Get returns the fact set for label, if present.
func (b *Batch) Get(label string) (FactSet, bool) {
	i, ok := b.index[label]
	if !ok {
		return FactSet{}, false
	}
	return b.entries[i].Set, true
}

// Entries returns the batch contents in insertion order.
func (b *Batch) Entries() []Entry {
	return b.entries
}

// Len returns the number of documents in the batch.
func (b *Batch) Len() int {
	return len(b.entries)
}

// MarshalJSON serializes the batch as one JSON object keyed by
// document label, preserving insertion order. Used for the debug
// results artifact.
func (b *Batch) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range b.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Set)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
