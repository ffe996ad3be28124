package printer

import (
	"strings"
	"unicode/utf8"
)

// ESC/POS command bytes
var (
	cmdInit        = []byte{0x1B, 0x40}             // ESC @
	cmdAlignLeft   = []byte{0x1B, 0x61, 0x00}       // ESC a 0
	cmdAlignCenter = []byte{0x1B, 0x61, 0x01}       // ESC a 1
	cmdBoldOn      = []byte{0x1B, 0x45, 0x01}       // ESC E 1
	cmdBoldOff     = []byte{0x1B, 0x45, 0x00}       // ESC E 0
	cmdDoubleSize  = []byte{0x1D, 0x21, 0x11}       // GS ! 0x11
	cmdNormalSize  = []byte{0x1D, 0x21, 0x00}       // GS ! 0x00
	cmdPartialCut  = []byte{0x1D, 0x56, 0x42, 0x00} // GS V 66 0
)

// Columns returns the characters per line for a paper width in mm
func Columns(paperWidth int) int {
	if paperWidth == 58 {
		return 32
	}
	return 48
}

// Builder accumulates ESC/POS commands and text
type Builder struct {
	buf  []byte
	cols int
}

// NewBuilder starts a slip with the printer initialized
func NewBuilder(cols int) *Builder {
	if cols <= 0 {
		cols = 48
	}
	b := &Builder{cols: cols}
	b.buf = append(b.buf, cmdInit...)
	return b
}

func (b *Builder) Center() *Builder {
	b.buf = append(b.buf, cmdAlignCenter...)
	return b
}

func (b *Builder) Left() *Builder {
	b.buf = append(b.buf, cmdAlignLeft...)
	return b
}

func (b *Builder) Bold(on bool) *Builder {
	if on {
		b.buf = append(b.buf, cmdBoldOn...)
	} else {
		b.buf = append(b.buf, cmdBoldOff...)
	}
	return b
}

func (b *Builder) Large(on bool) *Builder {
	if on {
		b.buf = append(b.buf, cmdDoubleSize...)
	} else {
		b.buf = append(b.buf, cmdNormalSize...)
	}
	return b
}

// Text writes s followed by a newline
func (b *Builder) Text(s string) *Builder {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, '\n')
	return b
}

// Pair writes left and right justified to the full line width
func (b *Builder) Pair(left, right string) *Builder {
	gap := b.cols - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		return b.Text(left).Text(strings.Repeat(" ", max(0, b.cols-utf8.RuneCountInString(right))) + right)
	}
	return b.Text(left + strings.Repeat(" ", gap) + right)
}

// Rule writes a dashed separator
func (b *Builder) Rule() *Builder {
	return b.Text(strings.Repeat("-", b.cols))
}

// Feed writes n empty lines
func (b *Builder) Feed(n int) *Builder {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, '\n')
	}
	return b
}

// Cut feeds and partially cuts the paper
func (b *Builder) Cut() *Builder {
	b.Feed(3)
	b.buf = append(b.buf, cmdPartialCut...)
	return b
}

// Bytes returns the accumulated commands
func (b *Builder) Bytes() []byte {
	return b.buf
}
