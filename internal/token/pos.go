package token

import "fmt"

// Pos represents a position in a source file.
// The zero value is an invalid position.
type Pos struct {
	filename string
	line     int // 1-based line number
	col      int // 1-based column number, in characters
}

// NewPos creates a new Pos with the given filename, line, and column.
func NewPos(filename string, line, col int) Pos {
	return Pos{filename: filename, line: line, col: col}
}

// String returns "filename:line:col", or "line:col" without a filename.
func (p Pos) String() string {
	if !p.IsValid() {
		if p.filename != "" {
			return p.filename
		}
		return "-"
	}
	if p.filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.filename, p.line, p.col)
	}
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// IsValid reports whether the position is valid.
func (p Pos) IsValid() bool {
	return p.line > 0
}

// Line returns the 1-based line number.
func (p Pos) Line() int { return p.line }

// Col returns the 1-based column number.
func (p Pos) Col() int { return p.col }

// Filename returns the source file name.
func (p Pos) Filename() string { return p.filename }
