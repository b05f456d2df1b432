package inter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// Tag is a named message parameter.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Tags keeps the order in which tags were attached.
type Tags []Tag

// Get returns the first tag value with the given name.
func (tt Tags) Get(name string) (string, bool) {
	for _, t := range tt {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// Value returns the tag value or an empty string.
func (tt Tags) Value(name string) string {
	v, _ := tt.Get(name)
	return v
}

// Message is one inbound, totally ordered instruction for the process.
type Message struct {
	ID          string    `json:"Id"`
	Target      string    `json:"Target"`
	From        string    `json:"From"`
	Owner       string    `json:"Owner"`
	Timestamp   Timestamp `json:"Timestamp"`
	BlockHeight idx.Block `json:"Block-Height"`
	HashChain   string    `json:"Hash-Chain,omitempty"`
	Data        string    `json:"Data,omitempty"`
	Tags        Tags      `json:"Tags"`
}

// Action returns the value of the Action tag.
func (m Message) Action() string {
	return m.Tags.Value("Action")
}

// Tag returns the value of the named tag.
func (m Message) Tag(name string) string {
	return m.Tags.Value(name)
}

// UnmarshalJSON accepts numeric fields and tag values both as JSON numbers and strings.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          string          `json:"Id"`
		Target      string          `json:"Target"`
		From        string          `json:"From"`
		Owner       string          `json:"Owner"`
		Timestamp   json.RawMessage `json:"Timestamp"`
		BlockHeight json.RawMessage `json:"Block-Height"`
		HashChain   string          `json:"Hash-Chain"`
		Data        string          `json:"Data"`
		Tags        Tags            `json:"Tags"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ts, err := flexUint(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("Timestamp: %w", err)
	}
	height, err := flexUint(raw.BlockHeight)
	if err != nil {
		return fmt.Errorf("Block-Height: %w", err)
	}
	*m = Message{
		ID:          raw.ID,
		Target:      raw.Target,
		From:        raw.From,
		Owner:       raw.Owner,
		Timestamp:   Timestamp(ts),
		BlockHeight: idx.Block(height),
		HashChain:   raw.HashChain,
		Data:        raw.Data,
		Tags:        raw.Tags,
	}
	return nil
}

func (t *Tag) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.Name = raw.Name
	t.Value = flexString(raw.Value)
	return nil
}

func flexUint(raw json.RawMessage) (uint64, error) {
	s := flexString(raw)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func flexString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// Env describes the process hosting the state machine.
type Env struct {
	ProcessID string `toml:"ProcessId" json:"processId"`
	Owner     string `toml:"Owner" json:"owner"`
	Name      string `toml:"Name" json:"name"`
	Authority string `toml:"Authority" json:"authority"`
}

// IsOwner reports whether the message was sent and signed by the process owner.
func (e Env) IsOwner(m Message) bool {
	return e.Owner != "" && m.From == e.Owner && m.Owner == e.Owner
}
