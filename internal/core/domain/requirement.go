package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RequirementType discriminates how a requirement is interpreted.
type RequirementType string

const (
	RequirementERC721    RequirementType = "ERC721"
	RequirementPOAP      RequirementType = "POAP"
	RequirementERC20     RequirementType = "ERC20"
	RequirementEther     RequirementType = "ETHER"
	RequirementSnapshot  RequirementType = "SNAPSHOT"
	RequirementWhitelist RequirementType = "WHITELIST"
)

// Requirement is a single eligibility rule as the API reports it.
type Requirement struct {
	Type    RequirementType `json:"type"`
	Address string          `json:"address,omitempty"`
	Symbol  string          `json:"symbol,omitempty"`
	Name    string          `json:"name,omitempty"`
	Key     string          `json:"key,omitempty"`
	Value   Value           `json:"value,omitempty"`
}

// Value is the loosely typed requirement value. It keeps the raw JSON so
// each requirement type can pick its own interpretation.
type Value struct {
	raw json.RawMessage
}

// NewValue wraps an already encoded JSON value.
func NewValue(raw string) Value {
	return Value{raw: json.RawMessage(raw)}
}

// StringValue builds a Value holding a JSON string.
func StringValue(s string) Value {
	data, _ := json.Marshal(s)
	return Value{raw: data}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

// IsZero reports whether the value is absent or JSON null.
func (v Value) IsZero() bool {
	trimmed := bytes.TrimSpace(v.raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Truthy follows the loose truthiness the API clients rely on: absent, null,
// false, 0 and the empty string are false.
func (v Value) Truthy() bool {
	if v.IsZero() {
		return false
	}
	var decoded any
	if err := json.Unmarshal(v.raw, &decoded); err != nil {
		return true
	}
	switch t := decoded.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

// String returns the display text: strings unquoted, everything else as
// compact JSON.
func (v Value) String() string {
	if v.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v.raw); err != nil {
		return strings.TrimSpace(string(v.raw))
	}
	return buf.String()
}

// Strings returns the value as a sequence of strings. A value that is not a
// JSON array yields nil; non-string elements are skipped.
func (v Value) Strings() []string {
	if v.IsZero() {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v.raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}
