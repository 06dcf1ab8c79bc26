package passes

import (
	"github.com/you-not-fish/voidc/internal/ssa"
)

// RemoveUnreachable deletes blocks that cannot be reached from the entry
// block, detaching them from the predecessor lists of reachable blocks.
func RemoveUnreachable(f *ssa.Func) {
	reachable := make(map[*ssa.Block]bool, len(f.Blocks))
	for _, b := range ssa.ReversePostOrder(f) {
		reachable[b] = true
	}
	if len(reachable) == len(f.Blocks) {
		return
	}

	var live []*ssa.Block
	for _, b := range f.Blocks {
		if reachable[b] {
			live = append(live, b)
			continue
		}
		for _, s := range b.Succs {
			s.RemovePred(b)
		}
		for _, v := range b.Values {
			for _, a := range v.Args {
				if a != nil {
					a.Uses--
				}
			}
		}
		for _, c := range b.Controls {
			if c != nil {
				c.Uses--
			}
		}
	}
	f.Blocks = live
}

// RemoveDeadValues deletes pure values with no uses until none remain.
// Parameters are kept so that the signature stays intact.
func RemoveDeadValues(f *ssa.Func) {
	for changed := true; changed; {
		changed = false
		for _, b := range f.Blocks {
			live := b.Values[:0]
			for _, v := range b.Values {
				if v.Uses == 0 && v.IsPure() && v.Op != ssa.OpArg {
					for _, a := range v.Args {
						if a != nil {
							a.Uses--
						}
					}
					changed = true
					continue
				}
				live = append(live, v)
			}
			b.Values = live
		}
	}
}
