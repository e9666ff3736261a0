// Package layout decodes fixed binary account layouts described as ordered field lists.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Kind is the wire type of a field.
type Kind int

const (
	U8 Kind = iota
	U64
	U128
	PublicKey
	Bool
	Bytes
)

func (k Kind) String() string {
	switch k {
	case U8:
		return "u8"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case PublicKey:
		return "publicKey"
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// fixedWidth returns the intrinsic width of k, or 0 for Bytes.
func (k Kind) fixedWidth() int {
	switch k {
	case U8, Bool:
		return 1
	case U64:
		return 8
	case U128:
		return 16
	case PublicKey:
		return 32
	default:
		return 0
	}
}

// Field is one named, fixed-width field.
type Field struct {
	Name  string
	Kind  Kind
	Width int // only read for Bytes
}

// width returns the encoded width of the field.
func (f Field) width() int {
	if f.Kind == Bytes {
		return f.Width
	}
	return f.Kind.fixedWidth()
}

// Field constructors.
func U8Field(name string) Field           { return Field{Name: name, Kind: U8} }
func U64Field(name string) Field          { return Field{Name: name, Kind: U64} }
func U128Field(name string) Field         { return Field{Name: name, Kind: U128} }
func PublicKeyField(name string) Field    { return Field{Name: name, Kind: PublicKey} }
func BoolField(name string) Field         { return Field{Name: name, Kind: Bool} }
func BytesField(name string, n int) Field { return Field{Name: name, Kind: Bytes, Width: n} }

// ErrFieldNotFound is returned by Record getters for unknown names or kind mismatches.
var ErrFieldNotFound = errors.New("field not found")

// DecodeError reports a length mismatch between data and layout.
type DecodeError struct {
	Layout   string
	Expected int
	Actual   int
	Prefix   bool
}

func (e *DecodeError) Error() string {
	if e.Prefix {
		return fmt.Sprintf("decode %s: need at least %d bytes, got %d", e.Layout, e.Expected, e.Actual)
	}
	return fmt.Sprintf("decode %s: expected %d bytes, got %d", e.Layout, e.Expected, e.Actual)
}

type slot struct {
	field  Field
	offset int
}

// Layout is an ordered field list. Offsets follow declaration order.
type Layout struct {
	name   string
	prefix bool
	slots  []slot
	index  map[string]int
	size   int
}

// New builds an exact layout: Decode requires len(data) == Size().
func New(name string, fields ...Field) *Layout {
	return build(name, false, fields)
}

// NewPrefix builds a layout that tolerates trailing bytes.
func NewPrefix(name string, fields ...Field) *Layout {
	return build(name, true, fields)
}

func build(name string, prefix bool, fields []Field) *Layout {
	l := &Layout{
		name:   name,
		prefix: prefix,
		slots:  make([]slot, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		w := f.width()
		if w < 0 {
			panic(fmt.Sprintf("layout %s: field %s has negative width", name, f.Name))
		}
		if _, dup := l.index[f.Name]; dup {
			panic(fmt.Sprintf("layout %s: duplicate field %s", name, f.Name))
		}
		l.index[f.Name] = len(l.slots)
		l.slots = append(l.slots, slot{field: f, offset: l.size})
		l.size += w
	}
	return l
}

// Name returns the layout name used in errors.
func (l *Layout) Name() string { return l.name }

// Size returns the sum of all field widths.
func (l *Layout) Size() int { return l.size }

// Offset returns the byte offset of a field.
func (l *Layout) Offset(name string) (int, bool) {
	i, ok := l.index[name]
	if !ok {
		return 0, false
	}
	return l.slots[i].offset, true
}

// Decode validates the length of data and returns a Record over a copy of it.
func (l *Layout) Decode(data []byte) (Record, error) {
	if len(data) < l.size || (!l.prefix && len(data) != l.size) {
		return Record{}, &DecodeError{Layout: l.name, Expected: l.size, Actual: len(data), Prefix: l.prefix}
	}
	buf := make([]byte, l.size)
	copy(buf, data[:l.size])
	return Record{layout: l, data: buf}, nil
}

// Record is a decoded view over validated bytes.
type Record struct {
	layout *Layout
	data   []byte
}

func (r Record) field(name string, kind Kind) ([]byte, error) {
	if r.layout == nil {
		return nil, fmt.Errorf("%w: %s (empty record)", ErrFieldNotFound, name)
	}
	i, ok := r.layout.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, r.layout.name, name)
	}
	s := r.layout.slots[i]
	if s.field.Kind != kind {
		return nil, fmt.Errorf("%w: %s.%s is %s, not %s", ErrFieldNotFound, r.layout.name, name, s.field.Kind, kind)
	}
	return r.data[s.offset : s.offset+s.field.width()], nil
}

// U8 reads a u8 field.
func (r Record) U8(name string) (uint8, error) {
	b, err := r.field(name, U8)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U64 reads a little-endian u64 field.
func (r Record) U64(name string) (uint64, error) {
	b, err := r.field(name, U64)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// U128 reads a little-endian u128 field.
func (r Record) U128(name string) (Uint128, error) {
	b, err := r.field(name, U128)
	if err != nil {
		return Uint128{}, err
	}
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[:8]),
		Hi: binary.LittleEndian.Uint64(b[8:]),
	}, nil
}

// PublicKey reads a 32-byte public key field.
func (r Record) PublicKey(name string) (solana.PublicKey, error) {
	b, err := r.field(name, PublicKey)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

// Bool reads a one-byte bool; any non-zero byte is true.
func (r Record) Bool(name string) (bool, error) {
	b, err := r.field(name, Bool)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// Bytes returns a copy of a raw bytes field.
func (r Record) Bytes(name string) ([]byte, error) {
	b, err := r.field(name, Bytes)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Hi, Lo uint64
}

// Big returns the value as a big.Int.
func (u Uint128) Big() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(u.Lo))
}

// Uint64 returns the value and whether it fits in 64 bits.
func (u Uint128) Uint64() (uint64, bool) {
	return u.Lo, u.Hi == 0
}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool { return u.Hi == 0 && u.Lo == 0 }

func (u Uint128) String() string { return u.Big().String() }
