package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChain is returned for labels outside the supported protocols.
var ErrUnknownChain = errors.New("unknown chain")

// Chain is the protocol label written to the consolidated output.
type Chain string

const (
	ChainOsmosis  Chain = "Osmosis"
	ChainAtom     Chain = "Atom"
	ChainDYDX     Chain = "dYdX"
	ChainCurve    Chain = "Curve"
	ChainGMX      Chain = "GMX"
	ChainBalancer Chain = "Balancer"
)

// AllChains returns the supported chains in build order.
func AllChains() []Chain {
	return []Chain{ChainOsmosis, ChainAtom, ChainDYDX, ChainCurve, ChainGMX, ChainBalancer}
}

// String returns the string representation of Chain.
func (c Chain) String() string {
	return string(c)
}

// IsValid checks if the chain is one of the supported protocols.
func (c Chain) IsValid() bool {
	for _, known := range AllChains() {
		if c == known {
			return true
		}
	}
	return false
}

// HasLiquidStaking reports whether the protocol's staked tokens can be
// represented by a transferable liquid-staking derivative.
func (c Chain) HasLiquidStaking() bool {
	switch c {
	case ChainOsmosis, ChainAtom, ChainDYDX:
		return true
	default:
		return false
	}
}

// NeedsQuotes reports whether the chain's build reads market quotes.
func (c Chain) NeedsQuotes() bool {
	return c.HasLiquidStaking()
}

// NeedsWarehouse reports whether the chain's build queries validator bonds.
func (c Chain) NeedsWarehouse() bool {
	return c == ChainDYDX
}

// Slug is the directory name used for the chain's input files and cache.
func (c Chain) Slug() string {
	switch c {
	case ChainOsmosis:
		return "osmosis"
	case ChainAtom:
		return "atom"
	case ChainDYDX:
		return "dydx"
	case ChainCurve:
		return "crv"
	case ChainGMX:
		return "gmx"
	case ChainBalancer:
		return "bal"
	default:
		return strings.ToLower(string(c))
	}
}

// ParseChain resolves a chain from its label or slug, case-insensitively.
func ParseChain(s string) (Chain, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllChains() {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Slug()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownChain, s)
}

// ParseChains resolves a comma-separated list. An empty list yields AllChains.
func ParseChains(list string) ([]Chain, error) {
	if strings.TrimSpace(list) == "" {
		return AllChains(), nil
	}
	var out []Chain
	seen := make(map[Chain]bool)
	for _, part := range strings.Split(list, ",") {
		c, err := ParseChain(part)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
