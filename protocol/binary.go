package protocol

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"
	"unicode/utf8"
)

type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8) {
	_ = w.buf.WriteByte(v)
}

func (w *writer) boolean(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, _ = w.buf.Write(b[:])
}

func (w *writer) i16(v int16) {
	w.u16(uint16(v))
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, _ = w.buf.Write(b[:])
}

func (w *writer) f32(v float64) {
	w.u32(math.Float32bits(float32(v)))
}

func (w *writer) str(v string) {
	v = cutString(v, math.MaxUint16)
	w.u16(uint16(len(v)))
	_, _ = w.buf.WriteString(v)
}

// cutString shortens s to at most n bytes without splitting a character.
func cutString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (w *writer) bytes() []byte {
	return w.buf.Bytes()
}

// reader never fails. A read past the end yields zero values, moves the
// offset to the end of the buffer and logs one warning per frame.
type reader struct {
	data   []byte
	off    int
	warned bool
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) warn(format string, args ...any) {
	if r.warned {
		return
	}
	r.warned = true
	log.Printf("protocol: "+format, args...)
}

func (r *reader) ensure(n int) bool {
	if r.remaining() >= n {
		return true
	}
	r.warn("read of %d bytes with only %d left, skipping to end of frame", n, r.remaining())
	r.off = len(r.data)
	return false
}

func (r *reader) u8() uint8 {
	if !r.ensure(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) boolean() bool {
	return r.u8() != 0
}

func (r *reader) u16() uint16 {
	if !r.ensure(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	if !r.ensure(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) f32() float64 {
	return float64(math.Float32frombits(r.u32()))
}

func (r *reader) str() string {
	n := int(r.u16())
	if n > r.remaining() {
		r.warn("string of %d bytes truncated to %d", n, r.remaining())
		n = r.remaining()
	}
	v := string(r.data[r.off : r.off+n])
	r.off += n
	return v
}

// count caps a collection length to the number of fixed-size items that
// still fit in the frame.
func (r *reader) count(n, itemSize int, what string) int {
	fit := r.remaining() / itemSize
	if n > fit {
		r.warn("%s count %d truncated to %d", what, n, fit)
		return fit
	}
	return n
}
