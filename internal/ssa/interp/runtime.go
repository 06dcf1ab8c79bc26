package interp

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/rtabi"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// external runs a declared runtime function. types describes the actual
// arguments; it may be shorter than args when unknown.
func (in *Interpreter) external(f *ssa.Func, args []uint64, types ...*ssa.Type) (uint64, error) {
	switch f.Name {
	case rtabi.FnPrintf:
		if len(args) == 0 {
			return 0, fmt.Errorf("printf: missing format")
		}
		n, err := in.printf(args[0], args[1:], types[min(1, len(types)):])
		return uint64(n), err
	case rtabi.FnExit:
		if len(args) != 1 {
			return 0, fmt.Errorf("exit: got %d arguments", len(args))
		}
		return 0, &exitError{code: int(int32(args[0]))}
	case rtabi.FnMalloc:
		if len(args) != 1 {
			return 0, fmt.Errorf("malloc: got %d arguments", len(args))
		}
		return in.mem.alloc(signed(args[0]), segHeap)
	case rtabi.FnFree:
		if len(args) != 1 {
			return 0, fmt.Errorf("free: got %d arguments", len(args))
		}
		return 0, in.mem.free(args[0])
	}
	return 0, fmt.Errorf("call to undefined external function %s", f.Name)
}

// printf implements the subset of C printf used by lowered programs:
// flags, width and precision followed by d i u x X c s f e g p or %.
func (in *Interpreter) printf(format uint64, args []uint64, types []*ssa.Type) (int, error) {
	fs, err := in.mem.cstring(format)
	if err != nil {
		return 0, fmt.Errorf("printf: %w", err)
	}

	var out strings.Builder
	next := 0
	take := func() (uint64, *ssa.Type, error) {
		if next >= len(args) {
			return 0, nil, fmt.Errorf("printf: too few arguments for %q", fs)
		}
		var t *ssa.Type
		if next < len(types) {
			t = types[next]
		}
		next++
		return args[next-1], t, nil
	}

	for i := 0; i < len(fs); i++ {
		c := fs[i]
		if c != '%' {
			out.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(fs) && strings.IndexByte("-+ 0#", fs[j]) >= 0 {
			j++
		}
		for j < len(fs) && (fs[j] >= '0' && fs[j] <= '9' || fs[j] == '.') {
			j++
		}
		spec := fs[i+1 : j]
		long := false
		for j < len(fs) && strings.IndexByte("lhz", fs[j]) >= 0 {
			long = long || fs[j] == 'l' || fs[j] == 'z'
			j++
		}
		if j >= len(fs) {
			return 0, fmt.Errorf("printf: truncated conversion in %q", fs)
		}
		verb := fs[j]
		i = j

		if verb == '%' {
			out.WriteByte('%')
			continue
		}
		x, t, err := take()
		if err != nil {
			return 0, err
		}
		switch verb {
		case 'd', 'i':
			if !long {
				x = wrapBits(x, 32)
			}
			fmt.Fprintf(&out, "%"+spec+"d", signed(x))
		case 'u', 'x', 'X':
			bits := 64
			if !long {
				bits = 32
			}
			if t != nil && t.Kind() == ir.IntKind && t.Bits() < bits {
				bits = t.Bits()
			}
			v := verb
			if v == 'u' {
				v = 'd'
			}
			fmt.Fprintf(&out, "%"+spec+string(v), zextBits(x, bits))
		case 'c':
			out.WriteByte(byte(x))
		case 's':
			s, err := in.mem.cstring(x)
			if err != nil {
				return 0, fmt.Errorf("printf %%s: %w", err)
			}
			fmt.Fprintf(&out, "%"+spec+"s", s)
		case 'f', 'e', 'g':
			if !strings.Contains(spec, ".") && verb == 'f' {
				spec += ".6"
			}
			fmt.Fprintf(&out, "%"+spec+string(verb), toFloat(x))
		case 'p':
			fmt.Fprintf(&out, "%#x", x)
		default:
			return 0, fmt.Errorf("printf: unsupported conversion %%%c", verb)
		}
	}

	n, err := in.out.Write([]byte(out.String()))
	return n, err
}
