// internal/pattern/color.go
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

const (
	// Color24Step is the channel increment between consecutive cells of a 24-bit band.
	Color24Step = 16
	// Color24BandSteps is the number of cells in each 24-bit band (0, 16, ..., 256).
	Color24BandSteps = 256/Color24Step + 1
	// Color24Bands is the number of gradient bands in the 24-bit pattern.
	Color24Bands = 6
)

// cubeLevels are the channel values of the 6x6x6 color cube in slots 16..231.
var cubeLevels = [6]string{"00", "33", "66", "99", "cc", "ff"}

// color16Table pairs a background with a foreground for each of the 16 cells.
// The first eight use bright backgrounds with normal foregrounds, the last
// eight normal backgrounds with bright foregrounds.
var color16Table = buildColor16Table()

func buildColor16Table() [16]string {
	var table [16]string
	for i := 0; i < 8; i++ {
		bg := termenv.ANSIColor(8 + (i+3)%8)
		fg := termenv.ANSIColor(i)
		table[i] = sgr(bg.Sequence(true)) + sgr(fg.Sequence(false))
	}
	for i := 0; i < 8; i++ {
		bg := termenv.ANSIColor((i + 3) % 8)
		fg := termenv.ANSIColor(8 + i)
		table[8+i] = sgr(bg.Sequence(true)) + sgr(fg.Sequence(false))
	}
	return table
}

// Color16Table returns the sixteen background/foreground prefixes used by Color16.
func Color16Table() [16]string {
	return color16Table
}

func sgr(params string) string {
	return termenv.CSI + params + "m"
}

// Color16 prefixes every character of base with the next entry of the 16-color table.
func Color16(base string) Source {
	var b strings.Builder
	for i, r := range []rune(base) {
		b.WriteString(color16Table[i%len(color16Table)])
		b.WriteRune(r)
	}
	return Source{Cycle: []byte(b.String())}
}

// Palette256 returns OSC 4 sequences programming slots 16..255: a 6x6x6 color
// cube followed by a 24-step grayscale ramp.
func Palette256() []byte {
	var b strings.Builder
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for bl := 0; bl < 6; bl++ {
				writePaletteEntry(&b, 16+r*36+g*6+bl, cubeLevels[r], cubeLevels[g], cubeLevels[bl])
			}
		}
	}
	for i := 0; i < 24; i++ {
		level := fmt.Sprintf("%02X", 8+i*10)
		writePaletteEntry(&b, 232+i, level, level, level)
	}
	return []byte(b.String())
}

func writePaletteEntry(b *strings.Builder, slot int, r, g, bl string) {
	b.WriteString(termenv.OSC)
	b.WriteString("4;")
	b.WriteString(strconv.Itoa(slot))
	b.WriteString(";rgb:")
	b.WriteString(r)
	b.WriteByte('/')
	b.WriteString(g)
	b.WriteByte('/')
	b.WriteString(bl)
	b.WriteString(termenv.ST)
}

// Color256 returns the palette as a prelude and a cycle that walks indexed
// backgrounds 16..255 with the mirrored foreground 271-i.
func Color256(base string) Source {
	chars := []rune(base)
	var b strings.Builder
	for i := 16; i < 256; i++ {
		b.WriteString(sgr(termenv.ANSI256Color(i).Sequence(true)))
		b.WriteString(sgr(termenv.ANSI256Color(255 + 16 - i).Sequence(false)))
		b.WriteRune(chars[i%len(chars)])
	}
	return Source{Prelude: Palette256(), Cycle: []byte(b.String())}
}

// color24Band describes one gradient band: which channel ramps, whether the
// ramp applies to the background, and the fixed 16-color opposite.
type color24Band struct {
	channel    int
	background bool
	fixed      termenv.ANSIColor
}

var color24Bands = [Color24Bands]color24Band{
	{channel: 0, background: true, fixed: termenv.ANSIColor(15)},
	{channel: 1, background: true, fixed: termenv.ANSIColor(13)},
	{channel: 2, background: true, fixed: termenv.ANSIColor(11)},
	{channel: 0, background: false, fixed: termenv.ANSIColor(15)},
	{channel: 1, background: false, fixed: termenv.ANSIColor(13)},
	{channel: 2, background: false, fixed: termenv.ANSIColor(11)},
}

// Color24 returns six 24-bit gradient bands. The first three ramp the
// background through red, green and blue under a fixed bright foreground; the
// last three ramp the foreground over a fixed bright background.
func Color24(base string) Source {
	chars := []rune(base)
	letter := 0
	var b strings.Builder
	for _, band := range color24Bands {
		for i := 0; i <= 256; i += Color24Step {
			var rgb [3]int
			rgb[band.channel] = min(i, 255)
			ramp := rgbSequence(rgb, band.background)
			fixed := sgr(band.fixed.Sequence(!band.background))
			if band.background {
				b.WriteString(ramp)
				b.WriteString(fixed)
			} else {
				b.WriteString(fixed)
				b.WriteString(ramp)
			}
			b.WriteRune(chars[letter%len(chars)])
			letter++
		}
	}
	return Source{Cycle: []byte(b.String())}
}

func rgbSequence(rgb [3]int, background bool) string {
	prefix := termenv.Foreground
	if background {
		prefix = termenv.Background
	}
	return sgr(fmt.Sprintf("%s;2;%d;%d;%d", prefix, rgb[0], rgb[1], rgb[2]))
}
