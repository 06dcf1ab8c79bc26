package ssa

import (
	"testing"

	"github.com/you-not-fish/voidc/internal/ir"
)

// makeSig is a helper that returns a simple void function signature.
func makeSig() *Type {
	return typ(testCtx.FuncOf(testCtx.Void(), nil, false))
}

// cfg builds control flow the way the front end lowers statements: one
// i32 parameter n and named blocks created through the builder.
type cfg struct {
	t *testing.T
	f *Func
	b ir.Builder
}

func newCFG(t *testing.T) *cfg {
	i32 := testCtx.Int(32)
	m := NewModule(testCtx, "dom")
	f := m.DefineFunction("f", testCtx.FuncOf(i32, []ir.Type{i32}, false), "n")
	b := testCtx.NewBuilder()
	b.SetInsertPoint(f.EntryBlock())
	return &cfg{t: t, f: f.(*Func), b: b}
}

func (c *cfg) block(name string) *Block { return c.f.AddBlock(name).(*Block) }

func (c *cfg) at(b *Block) { c.b.SetInsertPoint(b) }

// cond returns n < k.
func (c *cfg) cond(k int64) ir.Value {
	return c.b.ICmp(ir.IntSLT, c.f.Param(0), testCtx.ConstInt(testCtx.Int(32), k))
}

func (c *cfg) ret() { c.b.Ret(c.f.Param(0)) }

func (c *cfg) wantIdom(b, want *Block) {
	c.t.Helper()
	if b.Idom != want {
		c.t.Errorf("%s(%s).Idom = %v, want %v", b, b.Hint, b.Idom, want)
	}
}

// assertDF checks that the dominance frontier of b equals the expected set.
func assertDF(t *testing.T, df map[*Block][]*Block, b *Block, want ...*Block) {
	t.Helper()
	got := df[b]
	if len(got) != len(want) {
		t.Errorf("DF(%v) = %v, want %v", b, got, want)
		return
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("DF(%v) missing %v, got %v", b, w, got)
		}
	}
}

func TestDomSingleBlock(t *testing.T) {
	c := newCFG(t)
	c.ret()
	ComputeDom(c.f)

	if c.f.Entry.Idom != nil || len(c.f.Entry.Dominees) != 0 {
		t.Errorf("entry Idom = %v, Dominees = %v", c.f.Entry.Idom, c.f.Entry.Dominees)
	}
	if len(ComputeDomFrontier(c.f)) != 0 {
		t.Error("single block has a dominance frontier")
	}
}

// if (n < 0) {..} else if (n < 10) {..} else {..}
func TestDomElseIfChain(t *testing.T) {
	c := newCFG(t)
	entry := c.f.Entry
	then1, else1 := c.block("if.then"), c.block("if.else")
	then2, else2 := c.block("if.then"), c.block("if.else")
	end := c.block("if.end")

	c.b.CondBr(c.cond(0), then1, else1)
	c.at(then1)
	c.b.Br(end)
	c.at(else1)
	c.b.CondBr(c.cond(10), then2, else2)
	c.at(then2)
	c.b.Br(end)
	c.at(else2)
	c.b.Br(end)
	c.at(end)
	c.ret()

	ComputeDom(c.f)
	c.wantIdom(then1, entry)
	c.wantIdom(else1, entry)
	c.wantIdom(then2, else1)
	c.wantIdom(else2, else1)
	c.wantIdom(end, entry)
	if len(entry.Dominees) != 3 {
		t.Errorf("entry Dominees = %v, want 3 blocks", entry.Dominees)
	}

	df := ComputeDomFrontier(c.f)
	assertDF(t, df, entry)
	assertDF(t, df, then1, end)
	assertDF(t, df, else1, end)
	assertDF(t, df, then2, end)
	assertDF(t, df, else2, end)
}

// while (n < 10) {..}
func TestDomWhileLoop(t *testing.T) {
	c := newCFG(t)
	cond, body, exit := c.block("while.cond"), c.block("while.body"), c.block("while.end")
	c.b.Br(cond)
	c.at(cond)
	c.b.CondBr(c.cond(10), body, exit)
	c.at(body)
	c.b.Br(cond)
	c.at(exit)
	c.ret()

	ComputeDom(c.f)
	c.wantIdom(cond, c.f.Entry)
	c.wantIdom(body, cond)
	c.wantIdom(exit, cond)

	df := ComputeDomFrontier(c.f)
	assertDF(t, df, body, cond)
	assertDF(t, df, cond, cond)
	assertDF(t, df, exit)

	if !Dominates(cond, body) || Dominates(body, cond) || !Dominates(body, body) {
		t.Error("Dominates disagrees with the loop's dominator tree")
	}
}

// while (n < 10) { while (n < 5) {..} }
func TestDomNestedWhile(t *testing.T) {
	c := newCFG(t)
	outer, outerBody := c.block("while.cond"), c.block("while.body")
	inner, innerBody, innerEnd := c.block("while.cond"), c.block("while.body"), c.block("while.end")
	exit := c.block("while.end")

	c.b.Br(outer)
	c.at(outer)
	c.b.CondBr(c.cond(10), outerBody, exit)
	c.at(outerBody)
	c.b.Br(inner)
	c.at(inner)
	c.b.CondBr(c.cond(5), innerBody, innerEnd)
	c.at(innerBody)
	c.b.Br(inner)
	c.at(innerEnd)
	c.b.Br(outer)
	c.at(exit)
	c.ret()

	ComputeDom(c.f)
	c.wantIdom(inner, outerBody)
	c.wantIdom(innerBody, inner)
	c.wantIdom(innerEnd, inner)
	c.wantIdom(exit, outer)

	df := ComputeDomFrontier(c.f)
	assertDF(t, df, innerBody, inner)
	assertDF(t, df, inner, inner, outer)
	assertDF(t, df, innerEnd, outer)
	assertDF(t, df, outerBody, outer)
}

// a && b: the right operand is evaluated in its own block.
func TestDomShortCircuit(t *testing.T) {
	c := newCFG(t)
	rhs, end := c.block("logic.rhs"), c.block("logic.end")
	c.b.CondBr(c.cond(0), rhs, end)
	c.at(rhs)
	c.b.Br(end)
	c.at(end)
	c.ret()

	ComputeDom(c.f)
	c.wantIdom(rhs, c.f.Entry)
	c.wantIdom(end, c.f.Entry)
	assertDF(t, ComputeDomFrontier(c.f), rhs, end)
}

// A block left behind after a return still branches into the join; it
// must not pull the join's dominator up to the entry.
func TestDomIgnoresUnreachablePreds(t *testing.T) {
	c := newCFG(t)
	then, els, join := c.block("if.then"), c.block("if.else"), c.block("join")
	dead := c.block("after.return")

	c.b.CondBr(c.cond(0), then, els)
	c.at(then)
	c.ret()
	c.at(els)
	c.b.Br(join)
	c.at(dead)
	c.b.Br(join)
	c.at(join)
	c.ret()

	ComputeDom(c.f)
	c.wantIdom(join, els)
	c.wantIdom(dead, nil)
	if Reachable(c.f)[dead] {
		t.Error("dead block reported reachable")
	}

	df := ComputeDomFrontier(c.f)
	if _, ok := df[dead]; ok {
		t.Errorf("DF has an entry for the unreachable block: %v", df[dead])
	}
	assertDF(t, df, els)
}

func TestReversePostOrder(t *testing.T) {
	c := newCFG(t)
	then, els, end := c.block("if.then"), c.block("if.else"), c.block("if.end")
	c.b.CondBr(c.cond(0), then, els)
	c.at(then)
	c.b.Br(end)
	c.at(els)
	c.b.Br(end)
	c.at(end)
	c.ret()

	rpo := ReversePostOrder(c.f)
	if len(rpo) != 4 || rpo[0] != c.f.Entry || rpo[3] != end {
		t.Fatalf("rpo = %v, want entry first and if.end last", rpo)
	}
	// Every block comes after its forward predecessors.
	pos := make(map[*Block]int)
	for i, b := range rpo {
		pos[b] = i
	}
	for _, b := range rpo {
		for _, p := range b.Preds {
			if pos[p] >= pos[b] {
				t.Errorf("%s precedes its predecessor %s", b, p)
			}
		}
	}
}

// A long straight chain, as produced by a long run of else-if arms,
// must not exhaust the stack.
func TestDomLongChain(t *testing.T) {
	const n = 100_000
	f := NewFunc("f", makeSig())
	prev := f.Entry
	blocks := []*Block{prev}
	for i := 0; i < n; i++ {
		b := f.NewBlock(BlockPlain)
		prev.AddSucc(b)
		blocks = append(blocks, b)
		prev = b
	}
	prev.Kind = BlockReturn

	rpo := ReversePostOrder(f)
	if len(rpo) != n+1 {
		t.Fatalf("len(rpo) = %d, want %d", len(rpo), n+1)
	}
	ComputeDom(f)
	for i := 1; i < len(blocks); i += n / 10 {
		if blocks[i].Idom != blocks[i-1] {
			t.Errorf("%s.Idom = %v, want %v", blocks[i], blocks[i].Idom, blocks[i-1])
		}
	}
}

func TestComputeDomIsRepeatable(t *testing.T) {
	c := newCFG(t)
	cond, body, exit := c.block("while.cond"), c.block("while.body"), c.block("while.end")
	c.b.Br(cond)
	c.at(cond)
	c.b.CondBr(c.cond(3), body, exit)
	c.at(body)
	c.b.Br(cond)
	c.at(exit)
	c.ret()

	ComputeDom(c.f)
	ComputeDom(c.f)
	if len(cond.Dominees) != 2 {
		t.Errorf("cond Dominees = %v after two runs, want 2 blocks", cond.Dominees)
	}
}

// The join block uses a value defined in only one arm.
func TestVerifyDomUseNotDominated(t *testing.T) {
	c := newCFG(t)
	then, els, end := c.block("if.then"), c.block("if.else"), c.block("if.end")
	c.b.CondBr(c.cond(0), then, els)
	c.at(then)
	x := c.b.Add(c.f.Param(0), testCtx.ConstInt(testCtx.Int(32), 1))
	c.b.Br(end)
	c.at(els)
	c.b.Br(end)
	c.at(end)
	c.b.Ret(c.b.Neg(x))

	ComputeDom(c.f)
	if err := VerifyDom(c.f); err == nil {
		t.Error("VerifyDom accepted a use in a block its definition does not dominate")
	}
}
