package interp

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/you-not-fish/voidc/internal/ir"
	"github.com/you-not-fish/voidc/internal/ssa"
)

// Addresses are segment<<offsetBits | offset. Segment 0 is never
// allocated, so the zero address is null.
const offsetBits = 32

type segKind uint8

const (
	segStack segKind = iota
	segHeap
	segGlobal
)

func (k segKind) String() string {
	switch k {
	case segStack:
		return "stack"
	case segHeap:
		return "heap"
	}
	return "global"
}

type segment struct {
	data []byte
	kind segKind
	live bool
}

// memory is a segmented byte store. Every allocation gets its own segment
// so that out-of-range and use-after-free accesses are detected.
type memory struct {
	segs []*segment
}

func newMemory() *memory {
	return &memory{segs: []*segment{nil}}
}

func (m *memory) alloc(n int64, kind segKind) (uint64, error) {
	if n < 0 || n >= 1<<offsetBits {
		return 0, fmt.Errorf("invalid allocation size %d", n)
	}
	m.segs = append(m.segs, &segment{data: make([]byte, n), kind: kind, live: true})
	return uint64(len(m.segs)-1) << offsetBits, nil
}

// release marks stack segments dead when their frame returns.
func (m *memory) release(addrs []uint64) {
	for _, a := range addrs {
		if s := m.segs[a>>offsetBits]; s != nil {
			s.live = false
		}
	}
}

func (m *memory) free(addr uint64) error {
	if addr == 0 {
		return nil
	}
	s, off, err := m.segment(addr)
	if err != nil {
		return err
	}
	if s.kind != segHeap || off != 0 {
		return fmt.Errorf("free of non-heap pointer %#x", addr)
	}
	s.live = false
	return nil
}

func (m *memory) segment(addr uint64) (*segment, uint64, error) {
	idx, off := addr>>offsetBits, addr&(1<<offsetBits-1)
	if addr == 0 {
		return nil, 0, fmt.Errorf("nil pointer dereference")
	}
	if idx >= uint64(len(m.segs)) {
		return nil, 0, fmt.Errorf("invalid address %#x", addr)
	}
	s := m.segs[idx]
	if !s.live {
		return nil, 0, fmt.Errorf("access to released %s memory at %#x", s.kind, addr)
	}
	return s, off, nil
}

// bytes returns the n bytes at addr.
func (m *memory) bytes(addr uint64, n int64) ([]byte, error) {
	s, off, err := m.segment(addr)
	if err != nil {
		return nil, err
	}
	if off+uint64(n) > uint64(len(s.data)) {
		return nil, fmt.Errorf("%s access out of range: offset %d size %d in %d-byte object",
			s.kind, off, n, len(s.data))
	}
	return s.data[off : off+uint64(n)], nil
}

// cstring reads a NUL-terminated string starting at addr.
func (m *memory) cstring(addr uint64) (string, error) {
	s, off, err := m.segment(addr)
	if err != nil {
		return "", err
	}
	for i := off; i < uint64(len(s.data)); i++ {
		if s.data[i] == 0 {
			return string(s.data[off:i]), nil
		}
	}
	return "", fmt.Errorf("unterminated string at %#x", addr)
}

// load reads a scalar of type t in register form.
func (m *memory) load(addr uint64, t *ssa.Type) (uint64, error) {
	size := ssa.Sizeof(t)
	b, err := m.bytes(addr, size)
	if err != nil {
		return 0, err
	}
	switch t.Kind() {
	case ir.IntKind:
		var raw uint64
		switch size {
		case 1:
			raw = uint64(b[0])
		case 2:
			raw = uint64(binary.LittleEndian.Uint16(b))
		case 4:
			raw = uint64(binary.LittleEndian.Uint32(b))
		default:
			raw = binary.LittleEndian.Uint64(b)
		}
		return wrapBits(raw, t.Bits()), nil
	case ir.FloatKind:
		if t.Bits() == 32 {
			return math.Float64bits(float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))), nil
		}
		return binary.LittleEndian.Uint64(b), nil
	case ir.PointerKind:
		return binary.LittleEndian.Uint64(b), nil
	}
	return 0, fmt.Errorf("load of non-scalar type %s", t)
}

// store writes a register-form scalar of type t.
func (m *memory) store(addr uint64, t *ssa.Type, x uint64) error {
	size := ssa.Sizeof(t)
	b, err := m.bytes(addr, size)
	if err != nil {
		return err
	}
	switch t.Kind() {
	case ir.IntKind:
		switch size {
		case 1:
			b[0] = byte(x)
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(x))
		case 4:
			binary.LittleEndian.PutUint32(b, uint32(x))
		default:
			binary.LittleEndian.PutUint64(b, x)
		}
		return nil
	case ir.FloatKind:
		if t.Bits() == 32 {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(math.Float64frombits(x))))
			return nil
		}
		binary.LittleEndian.PutUint64(b, x)
		return nil
	case ir.PointerKind:
		binary.LittleEndian.PutUint64(b, x)
		return nil
	}
	return fmt.Errorf("store of non-scalar type %s", t)
}
