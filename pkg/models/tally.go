package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

type TallyEntry struct {
	PlayerID string
	Value    int
}

// Tally maps player ids to integers and remembers the order in which ids
// were first inserted. Winner tie-breaks depend on that order, so it is kept
// through JSON encoding as well. The zero value is an empty tally.
type Tally struct {
	keys   []string
	values map[string]int
}

func NewTally(entries ...TallyEntry) Tally {
	t := Tally{}
	for _, entry := range entries {
		t.Set(entry.PlayerID, entry.Value)
	}
	return t
}

// ZeroTally has an entry of zero for every id, in the given order.
func ZeroTally(playerIDs []string) Tally {
	t := Tally{}
	for _, id := range playerIDs {
		t.Set(id, 0)
	}
	return t
}

func (t *Tally) Set(playerID string, value int) {
	if t.values == nil {
		t.values = make(map[string]int)
	}
	if _, ok := t.values[playerID]; !ok {
		t.keys = append(t.keys, playerID)
	}
	t.values[playerID] = value
}

func (t *Tally) Add(playerID string, delta int) int {
	value := t.Value(playerID) + delta
	t.Set(playerID, value)
	return value
}

func (t Tally) Get(playerID string) (int, bool) {
	value, ok := t.values[playerID]
	return value, ok
}

// Value returns the entry for the id, or zero.
func (t Tally) Value(playerID string) int {
	return t.values[playerID]
}

func (t Tally) Len() int {
	return len(t.keys)
}

func (t Tally) Keys() []string {
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

func (t Tally) Entries() []TallyEntry {
	entries := make([]TallyEntry, 0, len(t.keys))
	for _, key := range t.keys {
		entries = append(entries, TallyEntry{key, t.values[key]})
	}
	return entries
}

func (t Tally) Clone() Tally {
	return NewTally(t.Entries()...)
}

// Equal compares entries and their order.
func (t Tally) Equal(other Tally) bool {
	if len(t.keys) != len(other.keys) {
		return false
	}
	for i, key := range t.keys {
		if other.keys[i] != key || other.values[key] != t.values[key] {
			return false
		}
	}
	return true
}

// Map returns an unordered copy.
func (t Tally) Map() map[string]int {
	result := make(map[string]int, len(t.keys))
	for key, value := range t.values {
		result[key] = value
	}
	return result
}

func (t Tally) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, key := range t.keys {
		if i > 0 {
			buffer.WriteByte(',')
		}
		encoded, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buffer.Write(encoded)
		buffer.WriteByte(':')
		fmt.Fprintf(&buffer, "%d", t.values[key])
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func (t *Tally) UnmarshalJSON(data []byte) error {
	*t = Tally{}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return err
	}

	if token == nil {
		return nil
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("tally must be a JSON object")
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}

		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("tally key is not a string")
		}

		var number json.Number
		if err := decoder.Decode(&number); err != nil {
			return fmt.Errorf("tally value for %s: %w", key, err)
		}

		parsed, err := number.Float64()
		if err != nil {
			return fmt.Errorf("tally value for %s is not a number", key)
		}

		parsed = math.Trunc(parsed)
		if parsed > math.MaxInt32 || parsed < math.MinInt32 {
			return fmt.Errorf("tally value for %s is out of range", key)
		}

		t.Set(key, int(parsed))
	}

	_, err = decoder.Token()
	return err
}
