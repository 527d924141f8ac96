package codec

import (
	"encoding/binary"
	"fmt"
	m "math"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
)

// ErrTruncated is returned when a payload or pack ends before its declared content.
var ErrTruncated = fmt.Errorf("%w: truncated data", core.ErrCorruptInput)

// Writer appends little-endian values to a growing byte slice.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) U16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

func (w *Writer) I32(v int32) {
	w.U32(uint32(v))
}

func (w *Writer) F32(v float32) {
	w.U32(m.Float32bits(v))
}

func (w *Writer) F32s(vs []float32) {
	for _, v := range vs {
		w.F32(v)
	}
}

func (w *Writer) U32s(vs []uint32) {
	for _, v := range vs {
		w.U32(v)
	}
}

func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Str writes a u32 byte length followed by the UTF-8 bytes.
func (w *Writer) Str(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// CStr writes a u32 length followed by the bytes and a terminating NUL.
// The length counts the NUL.
func (w *Writer) CStr(s string) {
	w.U32(uint32(len(s) + 1))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// Mat4 writes the matrix transposed, which is the column-major layout the engine uploads.
func (w *Writer) Mat4(mat math.Mat4) {
	t := math.NewMat4Transposed(mat)
	w.F32s(t.Data[:])
}

// Reader consumes little-endian values. The first failure sticks and every
// later read returns a zero value.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.fail(fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, r.Remaining()))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) I16() int16 {
	return int16(r.U16())
}

func (r *Reader) I32() int32 {
	return int32(r.U32())
}

func (r *Reader) F32() float32 {
	return m.Float32frombits(r.U32())
}

// Count reads a u32 element count and checks that count elements of
// elemSize bytes can still follow.
func (r *Reader) Count(elemSize int) int {
	n := int(r.U32())
	if r.err == nil && elemSize > 0 && n > r.Remaining()/elemSize {
		r.fail(fmt.Errorf("%w: %d elements of %d bytes at offset %d", ErrTruncated, n, elemSize, r.off))
		return 0
	}
	return n
}

func (r *Reader) F32s(n int) []float32 {
	b := r.take(n * 4)
	if b == nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = m.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func (r *Reader) U32s(n int) []uint32 {
	b := r.take(n * 4)
	if b == nil {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func (r *Reader) Raw(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func (r *Reader) Str() string {
	n := r.Count(1)
	return string(r.take(n))
}

// CStr reads a length-prefixed blob and strips the trailing NUL.
func (r *Reader) CStr() string {
	n := r.Count(1)
	b := r.take(n)
	if len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// Mat4 reads a transposed matrix back into row-major form.
func (r *Reader) Mat4() math.Mat4 {
	var t math.Mat4
	copy(t.Data[:], r.F32s(16))
	return math.NewMat4Transposed(t)
}

// Done fails the reader when bytes are left over.
func (r *Reader) Done() error {
	if r.err == nil && r.Remaining() != 0 {
		r.fail(fmt.Errorf("%w: %d trailing bytes", core.ErrCorruptInput, r.Remaining()))
	}
	return r.err
}
