// Package source tracks a single input string together with its line
// and column structure, so that syntax-error spans (see
// query.FormatSpan) can be reported at human-readable positions instead
// of bare byte or rune offsets.
package source

import (
	"bytes"
	"unicode/utf8"
)

// Source wraps one named input and precomputes line-start offsets so
// that Pos/LineCol lookups are O(log lines) rather than O(length).
type Source struct {
	name          string
	content       []byte
	lineStarts    []int
	prevLineIndex int
}

// New creates a Source from name and content.
func New(name string, content []byte) *Source {
	s := &Source{name: name, content: content, prevLineIndex: -1}
	lineCnt := bytes.Count(content, []byte("\n")) + 1
	s.lineStarts = make([]int, lineCnt)
	s.lineStarts[0] = 0
	j := 1
	for i := 0; i < len(content) && j < lineCnt; i++ {
		if content[i] == '\n' {
			s.lineStarts[j] = i + 1
			j++
		}
	}

	return s
}

// NewFromString is a convenience wrapper around New for string input.
func NewFromString(name, content string) *Source {
	return New(name, []byte(content))
}

// Name returns the source's name.
func (s *Source) Name() string {
	return s.name
}

// Content returns the raw bytes backing the source.
func (s *Source) Content() []byte {
	return s.content
}

// Len returns the length of the source in bytes.
func (s *Source) Len() int {
	return len(s.content)
}

// Slice returns the substring of the source between byte offsets
// [start, end), clamped to the source's bounds.
func (s *Source) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s.content) {
		end = len(s.content)
	}
	if start >= end {
		return ""
	}
	return string(s.content[start:end])
}

// LineCol converts a byte offset to a 1-based line and column.
func (s *Source) LineCol(pos int) (line, col int) {
	var lineIndex int
	if pos < 0 {
		pos = 0
		lineIndex = 0
	} else if pos >= len(s.content) {
		pos = len(s.content)
		lineIndex = len(s.lineStarts) - 1
	} else {
		lineIndex = s.findLineIndex(pos)
	}

	lineStart := s.lineStarts[lineIndex]
	return lineIndex + 1, utf8.RuneCount(s.content[lineStart:pos]) + 1
}

// Pos converts a 1-based line and column back to a byte offset.
func (s *Source) Pos(line, col int) int {
	if line <= 0 || col <= 0 {
		return 0
	}

	l := len(s.content)
	if line > len(s.lineStarts) {
		return l
	}

	res := s.lineStarts[line-1] + col - 1
	if res > l {
		return l
	}
	return res
}

func (s *Source) findLineIndex(pos int) int {
	if s.prevLineIndex >= 0 && s.lineStarts[s.prevLineIndex] <= pos {
		lineIndex := s.prevLineIndex
		last := len(s.lineStarts) - 1
		for lineIndex <= last && s.lineStarts[lineIndex] <= pos {
			lineIndex++
		}
		lineIndex--
		s.prevLineIndex = lineIndex
		return lineIndex
	}

	lineStart := 0
	leftIndex := 0
	rightIndex := len(s.lineStarts) - 1
	index := 0
	if s.prevLineIndex >= 0 {
		lineStart = s.lineStarts[s.prevLineIndex]
		rightIndex = s.prevLineIndex
	}
	for leftIndex < rightIndex {
		index = (leftIndex + rightIndex + 1) >> 1
		lineStart = s.lineStarts[index]
		if lineStart == pos {
			return index
		}

		if lineStart < pos {
			leftIndex = index
		} else {
			rightIndex = index - 1
			index = rightIndex
		}
	}
	s.prevLineIndex = index
	return index
}

// Pos identifies a position within a Source by byte offset, line, and
// column; it implements perr.SourcePos.
type Pos struct {
	src           *Source
	pos, line, col int
}

// NewPos builds a Pos for offset within src.
func NewPos(src *Source, offset int) Pos {
	p := Pos{src: src, pos: offset}
	if src != nil {
		p.line, p.col = src.LineCol(offset)
	}
	return p
}

func (p Pos) Source() *Source { return p.src }
func (p Pos) Offset() int     { return p.pos }
func (p Pos) Line() int       { return p.line }
func (p Pos) Col() int        { return p.col }

func (p Pos) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.Name()
}
