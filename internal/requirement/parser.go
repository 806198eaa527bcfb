package requirement

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Range is an inclusive numeric range carried inside a requirement value.
// Bounds are kept in the order the API sent them.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// String formats the range as "low-high".
func (r Range) String() string {
	return formatNumber(r.Low) + "-" + formatNumber(r.High)
}

// ParseRange interprets raw as a JSON array of exactly two numbers. Anything
// else, including invalid JSON, reports false.
func ParseRange(raw string) (Range, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return Range{}, false
	}
	if len(items) != 2 {
		return Range{}, false
	}

	low, ok := parseNumber(items[0])
	if !ok {
		return Range{}, false
	}
	high, ok := parseNumber(items[1])
	if !ok {
		return Range{}, false
	}
	return Range{Low: low, High: high}, true
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
