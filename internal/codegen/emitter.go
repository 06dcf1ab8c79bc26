package codegen

import (
	"fmt"
	"io"

	"github.com/you-not-fish/voidc/internal/ssa"
)

// emitter wraps an io.Writer with helpers for emitting LLVM IR text.
type emitter struct {
	w   io.Writer
	err error // first write error
}

// emit writes a formatted line to the output (no indentation).
func (e *emitter) emit(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

// emitLine writes a blank line.
func (e *emitter) emitLine() {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w)
}

// emitComment writes a comment line.
func (e *emitter) emitComment(text string) {
	e.emit("; %s", text)
}

// emitLabel writes a basic block label.
func (e *emitter) emitLabel(b *ssa.Block) {
	e.emit("%s:", blockName(b))
}

// emitInst writes an indented instruction line.
func (e *emitter) emitInst(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, "  "+format+"\n", args...)
}

// valueName returns the LLVM local name for an SSA value: %vN.
func valueName(v *ssa.Value) string {
	return fmt.Sprintf("%%v%d", v.ID)
}

// argName returns the LLVM name of parameter i: %argN. Source names are
// not reused because they need not be valid LLVM identifiers.
func argName(i int64) string {
	return fmt.Sprintf("%%arg%d", i)
}

// blockName returns the LLVM label for an SSA block.
// Block 0 is "entry", others are "bN".
func blockName(b *ssa.Block) string {
	if b.ID == 0 {
		return "entry"
	}
	return fmt.Sprintf("b%d", b.ID)
}
