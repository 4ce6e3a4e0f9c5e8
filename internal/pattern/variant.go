// internal/pattern/variant.go
// Package pattern builds the fixed byte patterns streamed by the xterm benchmark.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned when a variant name does not match any benchmark pattern.
var ErrUnknownVariant = errors.New("unknown benchmark variant")

// Variant selects one of the twelve benchmark patterns: an alphabet crossed with a color regime.
type Variant int

const (
	ASCII Variant = iota
	CJK
	Mixed
	ASCIIColor16
	CJKColor16
	MixedColor16
	ASCIIColor256
	CJKColor256
	MixedColor256
	ASCIIColor24
	CJKColor24
	MixedColor24
)

// Alphabet identifies the characters a variant draws from.
type Alphabet int

const (
	AlphabetASCII Alphabet = iota
	AlphabetCJK
	AlphabetMixed
)

// ColorMode identifies the escape sequences a variant interleaves with its characters.
type ColorMode int

const (
	ColorNone ColorMode = iota
	Color16Mode
	Color256Mode
	Color24Mode
)

var variantNames = map[Variant]string{
	ASCII:         "ascii",
	CJK:           "cjk",
	Mixed:         "mixed",
	ASCIIColor16:  "ascii-color16",
	CJKColor16:    "cjk-color16",
	MixedColor16:  "mixed-color16",
	ASCIIColor256: "ascii-color256",
	CJKColor256:   "cjk-color256",
	MixedColor256: "mixed-color256",
	ASCIIColor24:  "ascii-color24",
	CJKColor24:    "cjk-color24",
	MixedColor24:  "mixed-color24",
}

// All returns every benchmark variant in declaration order.
func All() []Variant {
	return []Variant{
		ASCII, CJK, Mixed,
		ASCIIColor16, CJKColor16, MixedColor16,
		ASCIIColor256, CJKColor256, MixedColor256,
		ASCIIColor24, CJKColor24, MixedColor24,
	}
}

// Valid reports whether v is one of the twelve declared variants.
func (v Variant) Valid() bool {
	_, ok := variantNames[v]
	return ok
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Alphabet returns the character set of the variant.
func (v Variant) Alphabet() Alphabet {
	return Alphabet(int(v) % 3)
}

// Colors returns the color regime of the variant.
func (v Variant) Colors() ColorMode {
	return ColorMode(int(v) / 3)
}

func (a Alphabet) String() string {
	switch a {
	case AlphabetASCII:
		return "ASCII"
	case AlphabetCJK:
		return "CJK"
	case AlphabetMixed:
		return "ASCII+CJK"
	default:
		return "unknown"
	}
}

func (c ColorMode) String() string {
	switch c {
	case ColorNone:
		return "none"
	case Color16Mode:
		return "16 colors"
	case Color256Mode:
		return "256 colors"
	case Color24Mode:
		return "24-bit colors"
	default:
		return "unknown"
	}
}

// ParseVariant resolves a variant by name. Matching ignores case, surrounding
// whitespace, and accepts underscores in place of dashes.
func ParseVariant(name string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	for v, n := range variantNames {
		if n == key {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Names returns the variant names in declaration order.
func Names() []string {
	variants := All()
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		names = append(names, v.String())
	}
	return names
}
