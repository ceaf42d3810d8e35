package prompt

import (
	"slices"
	"strings"
)

// ParamKey names a field of Parameters. It is also the flag name emitted by
// the builder and the key accepted in masked-key sets.
type ParamKey string

const (
	KeyAR      ParamKey = "ar"
	KeySref    ParamKey = "sref"
	KeyCref    ParamKey = "cref"
	KeyP       ParamKey = "p"
	KeyStylize ParamKey = "stylize"
	KeyChaos   ParamKey = "chaos"
	KeyWeird   ParamKey = "weird"
	KeyTile    ParamKey = "tile"
	KeyRaw     ParamKey = "raw"
)

// KeyOrder is the order in which the builder emits parameter flags.
var KeyOrder = []ParamKey{KeyAR, KeySref, KeyCref, KeyP, KeyStylize, KeyChaos, KeyWeird, KeyTile, KeyRaw}

// ParseParamKey returns the ParamKey for s and whether it is known.
func ParseParamKey(s string) (ParamKey, bool) {
	k := ParamKey(strings.ToLower(strings.TrimSpace(s)))
	return k, slices.Contains(KeyOrder, k)
}

// Numeric bounds for the integer parameters (inclusive).
type intRange struct{ min, max int }

var intRanges = map[ParamKey]intRange{
	KeyStylize: {0, 1000},
	KeyChaos:   {0, 100},
	KeyWeird:   {0, 3000},
}

// InRange reports whether v is an accepted value for the integer key k.
func InRange(k ParamKey, v int) bool {
	r, ok := intRanges[k]
	return ok && v >= r.min && v <= r.max
}

// Parameters is the structured form of the --key value flags in a command.
// Nil integer pointers and empty lists mean "absent"; flags are either
// true or omitted.
type Parameters struct {
	AR      string   `json:"ar,omitempty"`
	Sref    []string `json:"sref,omitempty"`
	Cref    []string `json:"cref,omitempty"`
	P       []string `json:"p,omitempty"`
	Stylize *int     `json:"stylize,omitempty"`
	Chaos   *int     `json:"chaos,omitempty"`
	Weird   *int     `json:"weird,omitempty"`
	Tile    bool     `json:"tile,omitempty"`
	Raw     bool     `json:"raw,omitempty"`
}

// IsEmpty reports whether no parameter is set.
func (p Parameters) IsEmpty() bool {
	for _, k := range KeyOrder {
		if p.Has(k) {
			return false
		}
	}
	return true
}

// Has reports whether key k carries a value that would be emitted.
func (p Parameters) Has(k ParamKey) bool {
	switch k {
	case KeyAR:
		return strings.TrimSpace(p.AR) != ""
	case KeySref:
		return len(p.Sref) > 0
	case KeyCref:
		return len(p.Cref) > 0
	case KeyP:
		return len(p.P) > 0
	case KeyStylize:
		return p.Stylize != nil && InRange(KeyStylize, *p.Stylize)
	case KeyChaos:
		return p.Chaos != nil && InRange(KeyChaos, *p.Chaos)
	case KeyWeird:
		return p.Weird != nil && InRange(KeyWeird, *p.Weird)
	case KeyTile:
		return p.Tile
	case KeyRaw:
		return p.Raw
	}
	return false
}

// Clone returns a deep copy.
func (p Parameters) Clone() Parameters {
	out := p
	out.Sref = slices.Clone(p.Sref)
	out.Cref = slices.Clone(p.Cref)
	out.P = slices.Clone(p.P)
	out.Stylize = cloneInt(p.Stylize)
	out.Chaos = cloneInt(p.Chaos)
	out.Weird = cloneInt(p.Weird)
	return out
}

// Without returns a copy with the given keys cleared.
func (p Parameters) Without(keys ...ParamKey) Parameters {
	out := p.Clone()
	for _, k := range keys {
		switch k {
		case KeyAR:
			out.AR = ""
		case KeySref:
			out.Sref = nil
		case KeyCref:
			out.Cref = nil
		case KeyP:
			out.P = nil
		case KeyStylize:
			out.Stylize = nil
		case KeyChaos:
			out.Chaos = nil
		case KeyWeird:
			out.Weird = nil
		case KeyTile:
			out.Tile = false
		case KeyRaw:
			out.Raw = false
		}
	}
	return out
}

// Int returns a pointer to v, for building Parameters literals.
func Int(v int) *int {
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// appendUnique appends the tokens not already in list, keeping order.
func appendUnique(list []string, tokens ...string) []string {
	for _, t := range tokens {
		if t != "" && !slices.Contains(list, t) {
			list = append(list, t)
		}
	}
	return list
}

// UniqueTokens returns tokens with empties and repeats removed, first
// occurrence kept. The result is nil when nothing remains.
func UniqueTokens(tokens []string) []string {
	out := appendUnique(nil, tokens...)
	if len(out) == 0 {
		return nil
	}
	return out
}
