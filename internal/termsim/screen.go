// internal/termsim/screen.go
// Package termsim provides a headless render pipeline that decodes terminal
// output into a cell grid and times each paint cycle.
package termsim

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// style is the SGR pen applied to printed cells. Colors hold the SGR
// parameter text, for example "31", "38;5;196" or "48;2;0;16;0".
type style struct {
	fg, bg string
	bold   bool
}

func (s style) sequence() string {
	params := []string{"0"}
	if s.bold {
		params = append(params, "1")
	}
	if s.fg != "" {
		params = append(params, s.fg)
	}
	if s.bg != "" {
		params = append(params, s.bg)
	}
	return "\x1b[" + strings.Join(params, ";") + "m"
}

type cell struct {
	content string
	width   int
	pen     style
}

// Screen is a fixed-size cell grid with a bounded scroll-back buffer. It is
// not safe for concurrent use.
type Screen struct {
	width, height int

	rows   [][]cell
	cx, cy int
	pen    style

	parser *ansi.Parser
	// pending holds an incomplete sequence or rune split across writes.
	// Decoding always restarts from the ground state at its first byte.
	pending []byte

	scrollback []string
	sbHead     int
	sbLen      int

	palette   map[int]string
	sequences int64
	graphemes int64
}

// NewScreen returns a blank screen. bufferSize bounds the scroll-back lines
// kept; zero keeps none.
func NewScreen(width, height, bufferSize int) *Screen {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	s := &Screen{
		width:      width,
		height:     height,
		parser:     ansi.NewParser(),
		scrollback: make([]string, bufferSize),
		palette:    make(map[int]string),
	}
	s.rows = make([][]cell, height)
	for i := range s.rows {
		s.rows[i] = s.blankRow()
	}
	return s
}

func (s *Screen) blankRow() []cell {
	row := make([]cell, s.width)
	for i := range row {
		row[i] = cell{content: " ", width: 1}
	}
	return row
}

// Size returns the grid dimensions in cells.
func (s *Screen) Size() (width, height int) {
	return s.width, s.height
}

// Write decodes p into the grid. Sequences split across calls are completed
// by the next call.
func (s *Screen) Write(p []byte) (int, error) {
	buf := p
	if len(s.pending) > 0 {
		buf = append(s.pending, p...)
		s.pending = nil
	}

	for len(buf) > 0 {
		if buf[0] >= 0xC0 && !utf8.FullRune(buf) {
			break
		}
		seq, width, n, newState := ansi.DecodeSequence(buf, ansi.NormalState, s.parser)
		if newState != ansi.NormalState && n == len(buf) {
			break
		}
		if n == len(buf)-1 && buf[n] == ansi.ESC && ansi.HasOscPrefix(buf) {
			break
		}
		if n == 0 {
			n = 1
		}
		s.handle(seq, width)
		buf = buf[n:]
	}

	if len(buf) > 0 {
		s.pending = append([]byte(nil), buf...)
	}
	return len(p), nil
}

func (s *Screen) handle(seq []byte, width int) {
	if width > 0 {
		s.graphemes++
		s.print(string(seq), width)
		return
	}
	if len(seq) == 1 {
		s.control(seq[0])
		return
	}
	s.sequences++
	switch {
	case ansi.HasCsiPrefix(seq):
		s.csi()
	case ansi.HasOscPrefix(seq):
		s.osc()
	}
}

func (s *Screen) print(content string, width int) {
	if width > s.width {
		width = s.width
	}
	if s.cx+width > s.width {
		s.cx = 0
		s.lineFeed()
	}
	row := s.rows[s.cy]
	row[s.cx] = cell{content: content, width: width, pen: s.pen}
	for i := 1; i < width; i++ {
		row[s.cx+i] = cell{pen: s.pen}
	}
	s.cx += width
}

func (s *Screen) control(c byte) {
	switch c {
	case ansi.LF, ansi.VT, ansi.FF:
		s.lineFeed()
	case ansi.CR:
		s.cx = 0
	case ansi.BS:
		if s.cx > 0 {
			s.cx--
		}
	case ansi.HT:
		s.cx = min((s.cx/8+1)*8, s.width-1)
	}
}

func (s *Screen) lineFeed() {
	if s.cy < s.height-1 {
		s.cy++
		return
	}
	s.pushScrollback(rowText(s.rows[0]))
	copy(s.rows, s.rows[1:])
	s.rows[s.height-1] = s.blankRow()
}

func (s *Screen) pushScrollback(line string) {
	size := len(s.scrollback)
	if size == 0 {
		return
	}
	idx := (s.sbHead + s.sbLen) % size
	s.scrollback[idx] = line
	if s.sbLen < size {
		s.sbLen++
	} else {
		s.sbHead = (s.sbHead + 1) % size
	}
}

func (s *Screen) csi() {
	cmd := ansi.Cmd(s.parser.Command())
	if cmd.Prefix() != 0 || cmd.Intermediate() != 0 {
		return
	}
	switch cmd.Final() {
	case 'm':
		s.sgr()
	case 'H', 'f':
		row, _ := s.parser.Param(0, 1)
		col, _ := s.parser.Param(1, 1)
		s.cy = clamp(row-1, 0, s.height-1)
		s.cx = clamp(col-1, 0, s.width-1)
	case 'J':
		if mode, _ := s.parser.Param(0, 0); mode == 2 || mode == 3 {
			for i := range s.rows {
				s.rows[i] = s.blankRow()
			}
		}
	case 'K':
		row := s.rows[s.cy]
		for i := s.cx; i < len(row); i++ {
			row[i] = cell{content: " ", width: 1}
		}
	}
}

func (s *Screen) sgr() {
	params := s.parser.Params()
	if len(params) == 0 {
		s.pen = style{}
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i].Param(0)
		switch {
		case p == 0:
			s.pen = style{}
		case p == 1:
			s.pen.bold = true
		case p == 22:
			s.pen.bold = false
		case p >= 30 && p <= 37, p >= 90 && p <= 97:
			s.pen.fg = strconv.Itoa(p)
		case p == 39:
			s.pen.fg = ""
		case p >= 40 && p <= 47, p >= 100 && p <= 107:
			s.pen.bg = strconv.Itoa(p)
		case p == 49:
			s.pen.bg = ""
		case p == 38 || p == 48:
			color, used := extendedColor(params[i+1:])
			if color != "" {
				color = strconv.Itoa(p) + ";" + color
				if p == 38 {
					s.pen.fg = color
				} else {
					s.pen.bg = color
				}
			}
			i += used
		}
	}
}

// extendedColor reads the 5;n or 2;r;g;b tail of a 38/48 parameter and
// returns it with the number of parameters consumed.
func extendedColor(params ansi.Params) (string, int) {
	if len(params) == 0 {
		return "", 0
	}
	switch params[0].Param(0) {
	case 5:
		if len(params) < 2 {
			return "", len(params)
		}
		return "5;" + strconv.Itoa(params[1].Param(0)), 2
	case 2:
		if len(params) < 4 {
			return "", len(params)
		}
		return "2;" + strconv.Itoa(params[1].Param(0)) + ";" +
			strconv.Itoa(params[2].Param(0)) + ";" +
			strconv.Itoa(params[3].Param(0)), 4
	}
	return "", 1
}

// osc records palette assignments of the form 4;index;spec.
func (s *Screen) osc() {
	data := string(s.parser.Data())
	fields := strings.Split(data, ";")
	if len(fields) < 3 || fields[0] != "4" {
		return
	}
	for i := 1; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		s.palette[idx] = fields[i+1]
	}
}

// Render paints the visible grid as styled text, one line per row.
func (s *Screen) Render() string {
	var b strings.Builder
	b.Grow(s.width * s.height * 2)
	for y, row := range s.rows {
		var pen style
		for _, c := range row {
			if c.content == "" {
				continue
			}
			if c.pen != pen {
				b.WriteString(c.pen.sequence())
				pen = c.pen
			}
			b.WriteString(c.content)
		}
		if pen != (style{}) {
			b.WriteString(ansi.ResetStyle)
		}
		if y < len(s.rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Rows returns the visible rows as plain text with trailing blanks removed.
func (s *Screen) Rows() []string {
	out := make([]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = rowText(row)
	}
	return out
}

// Scrollback returns the retained scrolled-off lines, oldest first.
func (s *Screen) Scrollback() []string {
	out := make([]string, 0, s.sbLen)
	for i := 0; i < s.sbLen; i++ {
		out = append(out, s.scrollback[(s.sbHead+i)%len(s.scrollback)])
	}
	return out
}

// Palette returns the color assigned to a palette slot by an OSC 4 sequence.
func (s *Screen) Palette(index int) (string, bool) {
	spec, ok := s.palette[index]
	return spec, ok
}

// Cursor returns the zero-based cursor column and row.
func (s *Screen) Cursor() (x, y int) {
	return s.cx, s.cy
}

func rowText(row []cell) string {
	var b strings.Builder
	for _, c := range row {
		b.WriteString(c.content)
	}
	return strings.TrimRight(b.String(), " ")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
