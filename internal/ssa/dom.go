package ssa

// ReversePostOrder returns the blocks reachable from f.Entry in reverse
// post-order. The walk keeps an explicit stack, so long else-if chains
// and deeply nested loops do not grow the Go stack.
func ReversePostOrder(f *Func) []*Block {
	if f.Entry == nil {
		return nil
	}
	type item struct {
		b    *Block
		next int // index of the next successor to visit
	}
	seen := map[*Block]bool{f.Entry: true}
	stack := []item{{b: f.Entry}}
	post := make([]*Block, 0, len(f.Blocks))
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			s := top.b.Succs[top.next]
			top.next++
			if !seen[s] {
				seen[s] = true
				stack = append(stack, item{b: s})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// Reachable returns the set of blocks reachable from f.Entry.
func Reachable(f *Func) map[*Block]bool {
	rpo := ReversePostOrder(f)
	set := make(map[*Block]bool, len(rpo))
	for _, b := range rpo {
		set[b] = true
	}
	return set
}

// ComputeDom fills Block.Idom and Block.Dominees for the reachable blocks
// of f, using the iterative algorithm of Cooper, Harvey and Kennedy over
// reverse post-order numbers. Unreachable blocks get a nil Idom and are
// ignored as predecessors, so blocks left behind after a return do not
// disturb the tree.
func ComputeDom(f *Func) {
	for _, b := range f.Blocks {
		b.Idom, b.Dominees = nil, nil
	}
	rpo := ReversePostOrder(f)
	if len(rpo) == 0 {
		return
	}
	num := make(map[*Block]int, len(rpo))
	for i, b := range rpo {
		num[b] = i
	}

	// idom[i] is the rpo number of the immediate dominator of rpo[i];
	// -1 while unknown. The entry is its own dominator during the
	// iteration.
	idom := make([]int, len(rpo))
	for i := range idom {
		idom[i] = -1
	}
	idom[0] = 0
	intersect := func(a, b int) int {
		for a != b {
			for a > b {
				a = idom[a]
			}
			for b > a {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for i := 1; i < len(rpo); i++ {
			next := -1
			for _, p := range rpo[i].Preds {
				j, ok := num[p]
				if !ok || idom[j] < 0 {
					continue
				}
				if next < 0 {
					next = j
				} else {
					next = intersect(j, next)
				}
			}
			if next >= 0 && idom[i] != next {
				idom[i] = next
				changed = true
			}
		}
	}

	for i := 1; i < len(rpo); i++ {
		d := rpo[idom[i]]
		rpo[i].Idom = d
		d.Dominees = append(d.Dominees, rpo[i])
	}
}

// Dominates reports whether a dominates b. Every block dominates itself.
// ComputeDom must have been called.
func Dominates(a, b *Block) bool {
	for ; b != nil; b = b.Idom {
		if b == a {
			return true
		}
	}
	return false
}

// ComputeDomFrontier returns the dominance frontier of every reachable
// block of f. ComputeDom must have been called.
func ComputeDomFrontier(f *Func) map[*Block][]*Block {
	df := make(map[*Block][]*Block)
	for _, b := range ReversePostOrder(f) {
		if len(b.Preds) < 2 {
			continue
		}
		for _, p := range b.Preds {
			if p != f.Entry && p.Idom == nil {
				continue // unreachable
			}
			for r := p; r != nil && r != b.Idom; r = r.Idom {
				df[r] = appendUnique(df[r], b)
			}
		}
	}
	return df
}

func appendUnique(list []*Block, b *Block) []*Block {
	for _, x := range list {
		if x == b {
			return list
		}
	}
	return append(list, b)
}
