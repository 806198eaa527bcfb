// Package requirement turns loosely typed guild requirements into render
// directives.
//
// Raw requirements are converted once into a Variant (see FromDomain) so the
// classifier never re-parses the opaque value field. Classify then maps each
// Variant onto a Directive, the boundary consumed by the page layer.
package requirement

import (
	"github.com/vietddude/guildhall/internal/core/domain"
)

// Variant is one interpretation of a requirement, selected by its type.
type Variant interface {
	Type() domain.RequirementType
	isVariant()
}

// ERC721 requires owning an NFT, optionally scoped to a trait.
type ERC721 struct {
	Address string       `json:"address,omitempty"`
	Symbol  string       `json:"symbol,omitempty"`
	Name    string       `json:"name,omitempty"`
	Key     string       `json:"key,omitempty"`
	Value   domain.Value `json:"value,omitempty"`
	// Range is set when Value holds a two-number range.
	Range *Range `json:"range,omitempty"`
}

// POAP requires holding a specific POAP.
type POAP struct {
	PoapID string `json:"poapId"`
}

// Token requires holding an ERC20 token or ether.
type Token struct {
	Kind    domain.RequirementType `json:"kind"`
	Address string                 `json:"address,omitempty"`
	Symbol  string                 `json:"symbol,omitempty"`
	Name    string                 `json:"name,omitempty"`
	Amount  string                 `json:"amount,omitempty"`
}

// Snapshot requires passing a Snapshot strategy.
type Snapshot struct {
	Strategy string       `json:"strategy,omitempty"`
	Name     string       `json:"name,omitempty"`
	Params   domain.Value `json:"params,omitempty"`
}

// Whitelist requires the member address to be on an allow-list.
type Whitelist struct {
	Addresses []string `json:"addresses"`
}

// Unsupported keeps a requirement whose type is not recognised.
type Unsupported struct {
	Raw domain.Requirement `json:"raw"`
}

func (ERC721) Type() domain.RequirementType { return domain.RequirementERC721 }
func (POAP) Type() domain.RequirementType { return domain.RequirementPOAP }
func (t Token) Type() domain.RequirementType { return t.Kind }
func (Snapshot) Type() domain.RequirementType { return domain.RequirementSnapshot }
func (Whitelist) Type() domain.RequirementType { return domain.RequirementWhitelist }
func (u Unsupported) Type() domain.RequirementType { return u.Raw.Type }

func (ERC721) isVariant() {}
func (POAP) isVariant() {}
func (Token) isVariant() {}
func (Snapshot) isVariant() {}
func (Whitelist) isVariant() {}
func (Unsupported) isVariant() {}

// FromDomain builds the variant for r. It never fails: malformed values
// degrade to their literal form.
func FromDomain(r domain.Requirement) Variant {
	switch r.Type {
	case domain.RequirementERC721:
		v := ERC721{
			Address: r.Address,
			Symbol:  r.Symbol,
			Name:    r.Name,
			Key:     r.Key,
			Value:   r.Value,
		}
		if rng, ok := ParseRange(r.Value.String()); ok {
			v.Range = &rng
		}
		return v
	case domain.RequirementPOAP:
		return POAP{PoapID: r.Value.String()}
	case domain.RequirementERC20, domain.RequirementEther:
		return Token{
			Kind:    r.Type,
			Address: r.Address,
			Symbol:  r.Symbol,
			Name:    r.Name,
			Amount:  r.Value.String(),
		}
	case domain.RequirementSnapshot:
		return Snapshot{Strategy: r.Key, Name: r.Name, Params: r.Value}
	case domain.RequirementWhitelist:
		addrs := r.Value.Strings()
		if addrs == nil {
			addrs = []string{}
		}
		return Whitelist{Addresses: addrs}
	default:
		return Unsupported{Raw: r}
	}
}

// FromDomainAll converts every requirement, preserving order.
func FromDomainAll(reqs []domain.Requirement) []Variant {
	out := make([]Variant, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, FromDomain(r))
	}
	return out
}
