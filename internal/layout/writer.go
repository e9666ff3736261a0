package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Writer encodes values into a zeroed buffer of the layout's size.
type Writer struct {
	layout *Layout
	buf    []byte
	err    error
}

// NewWriter returns a Writer for l.
func (l *Layout) NewWriter() *Writer {
	return &Writer{layout: l, buf: make([]byte, l.size)}
}

func (w *Writer) slot(name string, kind Kind) []byte {
	if w.err != nil {
		return nil
	}
	i, ok := w.layout.index[name]
	if !ok || w.layout.slots[i].field.Kind != kind {
		w.err = fmt.Errorf("%w: %s.%s as %s", ErrFieldNotFound, w.layout.name, name, kind)
		return nil
	}
	s := w.layout.slots[i]
	return w.buf[s.offset : s.offset+s.field.width()]
}

func (w *Writer) PutU8(name string, v uint8) *Writer {
	if b := w.slot(name, U8); b != nil {
		b[0] = v
	}
	return w
}

func (w *Writer) PutU64(name string, v uint64) *Writer {
	if b := w.slot(name, U64); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
	return w
}

func (w *Writer) PutU128(name string, v Uint128) *Writer {
	if b := w.slot(name, U128); b != nil {
		binary.LittleEndian.PutUint64(b[:8], v.Lo)
		binary.LittleEndian.PutUint64(b[8:], v.Hi)
	}
	return w
}

func (w *Writer) PutPublicKey(name string, v solana.PublicKey) *Writer {
	if b := w.slot(name, PublicKey); b != nil {
		copy(b, v[:])
	}
	return w
}

func (w *Writer) PutBool(name string, v bool) *Writer {
	if b := w.slot(name, Bool); b != nil {
		if v {
			b[0] = 1
		} else {
			b[0] = 0
		}
	}
	return w
}

func (w *Writer) PutBytes(name string, v []byte) *Writer {
	if b := w.slot(name, Bytes); b != nil {
		if len(v) != len(b) {
			w.err = fmt.Errorf("%s.%s: want %d bytes, got %d", w.layout.name, name, len(b), len(v))
			return w
		}
		copy(b, v)
	}
	return w
}

// Bytes returns the encoded buffer or the first error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}
