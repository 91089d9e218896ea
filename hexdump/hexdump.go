// Package hexdump renders remote memory for inspection, annotating pointer
// words and known field offsets.
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"memscene/coloransi"
)

type Options struct {
	// BytesPerLine is rounded up to a multiple of 8.
	BytesPerLine int

	// Address is the remote address of data[0].
	Address uint64

	// MaxLines truncates the dump; 0 means no limit.
	MaxLines int

	Color bool

	// IsPointer reports whether a word looks like a readable remote pointer.
	IsPointer func(v uint64) bool

	// Labels names fields by their offset from Address.
	Labels map[uint64]string

	OffsetColor  coloransi.ColorCode
	HexColor     coloransi.ColorCode
	ZeroColor    coloransi.ColorCode
	PointerColor coloransi.ColorCode
	LabelColor   coloransi.ColorCode
}

func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		Color:        true,
		OffsetColor:  coloransi.Cyan,
		HexColor:     coloransi.Green,
		ZeroColor:    coloransi.BrightBlack,
		PointerColor: coloransi.Yellow,
		LabelColor:   coloransi.ColorOrange,
	}
}

func Dump(data []byte, o Options) string {
	var buf bytes.Buffer
	DumpToWriter(&buf, data, o)
	return buf.String()
}

func DumpToWriter(w io.Writer, data []byte, o Options) {
	if o.BytesPerLine <= 0 {
		o.BytesPerLine = 16
	}
	o.BytesPerLine = (o.BytesPerLine + 7) &^ 7

	lines := 0
	for off := 0; off < len(data); off += o.BytesPerLine {
		if o.MaxLines > 0 && lines >= o.MaxLines {
			fmt.Fprintf(w, "... %d more bytes\n", len(data)-off)
			return
		}
		end := off + o.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		writeLine(w, data[off:end], uint64(off), o)
		lines++
	}
}

func (o Options) paint(c coloransi.ColorCode, s string) string {
	if !o.Color {
		return s
	}
	return coloransi.Foreground(c, s)
}

func writeLine(w io.Writer, line []byte, off uint64, o Options) {
	var b strings.Builder
	b.WriteString(o.paint(o.OffsetColor, fmt.Sprintf("%016x", o.Address+off)))
	b.WriteString("  ")

	for i := 0; i < o.BytesPerLine; i++ {
		if i > 0 && i%8 == 0 {
			b.WriteString(" ")
		}
		if i >= len(line) {
			b.WriteString("   ")
			continue
		}
		hex := fmt.Sprintf("%02x ", line[i])
		if line[i] == 0 {
			b.WriteString(o.paint(o.ZeroColor, hex))
		} else {
			b.WriteString(o.paint(o.HexColor, hex))
		}
	}

	b.WriteString("|")
	for _, c := range line {
		if c < 0x80 && unicode.IsPrint(rune(c)) {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	b.WriteString("|")

	for _, note := range annotations(line, off, o) {
		b.WriteString(" ")
		b.WriteString(note)
	}
	b.WriteString("\n")
	io.WriteString(w, b.String())
}

// annotations describes the 8-byte words of one line.
func annotations(line []byte, off uint64, o Options) []string {
	var notes []string
	for i := 0; i+8 <= len(line); i += 8 {
		at := off + uint64(i)
		label, labeled := o.Labels[at]
		v := binary.LittleEndian.Uint64(line[i : i+8])
		isPtr := o.IsPointer != nil && v != 0 && o.IsPointer(v)
		if !labeled && !isPtr {
			continue
		}

		note := fmt.Sprintf("+%#x", at)
		if labeled {
			note += " " + o.paint(o.LabelColor, label)
		}
		if isPtr {
			note += " -> " + o.paint(o.PointerColor, fmt.Sprintf("%#x", v))
		}
		notes = append(notes, "["+note+"]")
	}
	return notes
}

// SortedLabels lists labels by offset, for legends.
func SortedLabels(labels map[uint64]string) []string {
	offsets := make([]uint64, 0, len(labels))
	for off := range labels {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	out := make([]string, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, fmt.Sprintf("+%#x %s", off, labels[off]))
	}
	return out
}
