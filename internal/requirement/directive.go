package requirement

import (
	"strings"

	"github.com/vietddude/guildhall/internal/core/domain"
)

// Kind selects how the presentation layer draws a requirement card.
type Kind string

const (
	KindNone      Kind = ""
	KindText      Kind = "text"
	KindLink      Kind = "link"
	KindToken     Kind = "token"
	KindSnapshot  Kind = "snapshot"
	KindWhitelist Kind = "whitelist"
)

// Segment is a run of card text, optionally linking somewhere.
type Segment struct {
	Text     string `json:"text"`
	Href     string `json:"href,omitempty"`
	Title    string `json:"title,omitempty"`
	External bool   `json:"external,omitempty"`
}

// Directive is the abstract rendering instruction for one requirement.
// Token, Snapshot and Whitelist directives hand their payload to dedicated
// sub-renderers.
type Directive struct {
	Kind      Kind                   `json:"kind"`
	Type      domain.RequirementType `json:"type,omitempty"`
	Segments  []Segment              `json:"segments,omitempty"`
	Token     *Token                 `json:"token,omitempty"`
	Snapshot  *Snapshot              `json:"snapshot,omitempty"`
	Whitelist []string               `json:"whitelist,omitempty"`
}

// IsEmpty reports whether nothing should be rendered.
func (d Directive) IsEmpty() bool {
	return d.Kind == KindNone
}

// Text concatenates the directive's segments.
func (d Directive) Text() string {
	var b strings.Builder
	for _, s := range d.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
