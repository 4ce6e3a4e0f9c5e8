// internal/pattern/pattern.go
package pattern

import (
	"strings"
)

// cjkText is a fixed run of 50 common CJK ideographs, all three bytes in UTF-8.
const cjkText = "元兄充兆先光克免入全" +
	"八公六共兵其具典兼冀" +
	"再冒冕冠冬冷冽凄准凉" +
	"凋凌凝凡凶凸凹出函刀" +
	"刃分切刈刊刎刑列初判"

// Source holds the bytes streamed for one variant.
//
// Cycle is one full repetition of the pattern and is what the stream generator
// repeats until the deadline. Prelude, when present, is written once before the
// first cycle; the 256-color variants use it to program the palette.
type Source struct {
	Prelude []byte
	Cycle   []byte
}

// ASCIIText returns the printable ASCII range 0x21..0x7E.
func ASCIIText() string {
	var b strings.Builder
	b.Grow(0x7e - 0x21 + 1)
	for c := byte(0x21); c <= 0x7e; c++ {
		b.WriteByte(c)
	}
	return b.String()
}

// CJKText returns the fixed set of 50 CJK ideographs.
func CJKText() string {
	return cjkText
}

// MixedText interleaves each CJK ideograph with an ASCII character.
func MixedText() string {
	cjk := []rune(CJKText())
	ascii := []rune(ASCIIText())

	var b strings.Builder
	for i, r := range cjk {
		b.WriteRune(r)
		b.WriteRune(ascii[i%len(ascii)])
	}
	return b.String()
}

// Text returns the base characters for an alphabet.
func Text(a Alphabet) string {
	switch a {
	case AlphabetCJK:
		return CJKText()
	case AlphabetMixed:
		return MixedText()
	default:
		return ASCIIText()
	}
}

// builders maps each variant to its source constructor. Build consults it, so a
// variant missing here is treated as unrecognized rather than silently empty.
var builders = map[Variant]func() Source{
	ASCII:         func() Source { return plain(ASCIIText()) },
	CJK:           func() Source { return plain(CJKText()) },
	Mixed:         func() Source { return plain(MixedText()) },
	ASCIIColor16:  func() Source { return Color16(ASCIIText()) },
	CJKColor16:    func() Source { return Color16(CJKText()) },
	MixedColor16:  func() Source { return Color16(MixedText()) },
	ASCIIColor256: func() Source { return Color256(ASCIIText()) },
	CJKColor256:   func() Source { return Color256(CJKText()) },
	MixedColor256: func() Source { return Color256(MixedText()) },
	ASCIIColor24:  func() Source { return Color24(ASCIIText()) },
	CJKColor24:    func() Source { return Color24(CJKText()) },
	MixedColor24:  func() Source { return Color24(MixedText()) },
}

// Build returns a freshly built source for v. The second result is false when v
// is not one of the declared variants; callers treat that as an empty run.
func Build(v Variant) (Source, bool) {
	if !v.Valid() {
		return Source{}, false
	}
	return builders[v](), true
}

func plain(text string) Source {
	return Source{Cycle: []byte(text)}
}
