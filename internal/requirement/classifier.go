package requirement

import (
	"strings"

	"github.com/vietddude/guildhall/internal/core/domain"
)

const (
	// ENSRegistrarAddress is the ENS base registrar, reported upstream as a
	// symbol-less token.
	ENSRegistrarAddress = "0x57f1887a8bf19b14fc0df6fd9b2acc9af147ea85"

	etherscanTokenURL = "https://etherscan.io/token/"
)

// EtherscanTokenURL returns the block explorer page for a token address.
func EtherscanTokenURL(address string) string {
	return etherscanTokenURL + address
}

// Classify maps a variant onto its render directive. Unsupported variants
// (and nil) yield an empty directive.
func Classify(v Variant) Directive {
	switch r := v.(type) {
	case ERC721:
		return classifyERC721(r)
	case POAP:
		return Directive{
			Kind:     KindText,
			Type:     domain.RequirementPOAP,
			Segments: []Segment{{Text: "Own the " + r.PoapID + " POAP"}},
		}
	case Token:
		tok := r
		return Directive{Kind: KindToken, Type: r.Kind, Token: &tok}
	case Snapshot:
		snap := r
		return Directive{Kind: KindSnapshot, Type: domain.RequirementSnapshot, Snapshot: &snap}
	case Whitelist:
		addrs := r.Addresses
		if addrs == nil {
			addrs = []string{}
		}
		return Directive{Kind: KindWhitelist, Type: domain.RequirementWhitelist, Whitelist: addrs}
	default:
		return Directive{}
	}
}

// ClassifyRequirement converts and classifies a raw requirement.
func ClassifyRequirement(r domain.Requirement) Directive {
	return Classify(FromDomain(r))
}

func classifyERC721(r ERC721) Directive {
	name := displayName(r.Symbol, r.Address, r.Name)

	if r.Key == "" {
		return Directive{
			Kind: KindLink,
			Type: domain.RequirementERC721,
			Segments: []Segment{
				{Text: "Own a(n) "},
				{
					Text:     name,
					Href:     EtherscanTokenURL(r.Address),
					Title:    "View on Etherscan",
					External: true,
				},
				{Text: " NFT"},
			},
		}
	}

	text := "Own a(n) " + name
	if r.Value.Truthy() {
		amount := r.Value.String()
		if r.Range != nil {
			amount = r.Range.String()
		}
		text += " with " + amount + " " + r.Key
	}
	return Directive{
		Kind:     KindText,
		Type:     domain.RequirementERC721,
		Segments: []Segment{{Text: text}},
	}
}

func displayName(symbol, address, name string) string {
	if symbol == "-" && strings.EqualFold(address, ENSRegistrarAddress) {
		return "ENS"
	}
	return name
}
