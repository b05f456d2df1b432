package cser

import (
	"errors"
	"math/big"

	"github.com/rony4d/go-ario/utils/bits"
	"github.com/rony4d/go-ario/utils/fast"
)

var (
	ErrNonCanonicalEncoding = errors.New("non canonical encoding")
	ErrMalformedEncoding    = errors.New("malformed encoding")
	ErrTooLargeAlloc        = errors.New("too large allocation")
)

// MaxAlloc bounds any single decoded byte string.
const MaxAlloc = 1024 * 1024

// Writer splits output into a bit stream (widths, flags) and a byte stream (payload).
type Writer struct {
	BitsW  *bits.Writer
	BytesW *fast.Writer
}

// Reader is the decoding twin of Writer.
type Reader struct {
	BitsR  *bits.Reader
	BytesR *fast.Reader
}

func NewWriter() *Writer {
	bbits := &bits.Array{Bytes: make([]byte, 0, 64)}
	bbytes := make([]byte, 0, 512)
	return &Writer{
		BitsW:  bits.NewWriter(bbits),
		BytesW: fast.NewWriter(bbytes),
	}
}

// writeUint64Compact writes 7 bits per byte; a set high bit marks the last byte.
func writeUint64Compact(bytesW *fast.Writer, v uint64) {
	for {
		chunk := v & 0b01111111
		v = v >> 7
		if v == 0 {
			chunk |= 0b10000000
		}
		bytesW.WriteByte(byte(chunk))
		if v == 0 {
			return
		}
	}
}

func readUint64Compact(bytesR *fast.Reader) uint64 {
	v := uint64(0)
	stop := false
	for i := 0; !stop; i++ {
		chunk := uint64(bytesR.ReadByte())
		stop = (chunk & 0b10000000) != 0
		word := chunk & 0b01111111
		v |= word << (i * 7)
		if i > 0 && stop && word == 0 {
			panic(ErrNonCanonicalEncoding)
		}
	}
	return v
}

// writeUint64BitCompact writes v little-endian using the fewest bytes, but no fewer than minSize.
func writeUint64BitCompact(bytesW *fast.Writer, v uint64, minSize int) (size int) {
	for size < minSize || v != 0 {
		bytesW.WriteByte(byte(v))
		size++
		v = v >> 8
	}
	return
}

func readUint64BitCompact(bytesR *fast.Reader, size int) uint64 {
	var (
		v    uint64
		last byte
	)
	buf := bytesR.Read(size)
	for i, b := range buf {
		v |= uint64(b) << uint(8*i)
		last = b
	}
	if size > 1 && last == 0 {
		panic(ErrNonCanonicalEncoding)
	}
	return v
}

func (r *Reader) readU64Bits(minSize int, bitsForSize int) uint64 {
	size := r.BitsR.Read(bitsForSize)
	size += uint(minSize)
	return readUint64BitCompact(r.BytesR, int(size))
}

func (w *Writer) writeU64Bits(minSize int, bitsForSize int, v uint64) {
	size := writeUint64BitCompact(w.BytesW, v, minSize)
	w.BitsW.Write(bitsForSize, uint(size-minSize))
}

func (w *Writer) U8(v uint8) {
	w.BytesW.WriteByte(v)
}

func (r *Reader) U8() uint8 {
	return r.BytesR.ReadByte()
}

func (w *Writer) U16(v uint16) {
	w.writeU64Bits(1, 1, uint64(v))
}

func (r *Reader) U16() uint16 {
	return uint16(r.readU64Bits(1, 1))
}

func (w *Writer) U32(v uint32) {
	w.writeU64Bits(1, 2, uint64(v))
}

func (r *Reader) U32() uint32 {
	return uint32(r.readU64Bits(1, 2))
}

func (w *Writer) U64(v uint64) {
	w.writeU64Bits(1, 3, v)
}

func (r *Reader) U64() uint64 {
	return r.readU64Bits(1, 3)
}

// U56 is used for lengths and counts.
func (w *Writer) U56(v uint64) {
	const max = 1<<(8*7) - 1
	if v > max {
		panic("too big value for U56")
	}
	w.writeU64Bits(0, 3, v)
}

func (r *Reader) U56() uint64 {
	return r.readU64Bits(0, 3)
}

func (w *Writer) Bool(v bool) {
	u := uint(0)
	if v {
		u = 1
	}
	w.BitsW.Write(1, u)
}

func (r *Reader) Bool() bool {
	return r.BitsR.Read(1) != 0
}

func (w *Writer) FixedBytes(v []byte) {
	w.BytesW.Write(v)
}

func (r *Reader) FixedBytes(v []byte) {
	copy(v, r.BytesR.Read(len(v)))
}

// SliceBytes writes a length-prefixed byte string.
func (w *Writer) SliceBytes(v []byte) {
	w.U56(uint64(len(v)))
	w.FixedBytes(v)
}

func (r *Reader) SliceBytes(maxLen int) []byte {
	size := r.U56()
	if size > uint64(maxLen) {
		panic(ErrTooLargeAlloc)
	}
	buf := make([]byte, size)
	r.FixedBytes(buf)
	return buf
}

func (w *Writer) String(v string) {
	w.SliceBytes([]byte(v))
}

func (r *Reader) String() string {
	return string(r.SliceBytes(MaxAlloc))
}

// Strings writes a counted list of strings.
func (w *Writer) Strings(vv []string) {
	w.U56(uint64(len(vv)))
	for _, v := range vv {
		w.String(v)
	}
}

func (r *Reader) Strings() []string {
	n := r.Count()
	if n == 0 {
		return nil
	}
	vv := make([]string, n)
	for i := range vv {
		vv[i] = r.String()
	}
	return vv
}

// Count reads a collection length written with U56.
func (r *Reader) Count() int {
	n := r.U56()
	if n > MaxAlloc {
		panic(ErrTooLargeAlloc)
	}
	return int(n)
}

// BigInt stores the magnitude only.
func (w *Writer) BigInt(v *big.Int) {
	bigBytes := []byte{}
	if v.Sign() != 0 {
		bigBytes = v.Bytes()
	}
	w.SliceBytes(bigBytes)
}

func (r *Reader) BigInt() *big.Int {
	buf := r.SliceBytes(512)
	if len(buf) == 0 {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(buf)
}

// PaddedBytes left-pads b with zeros up to n bytes.
func PaddedBytes(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	padding := make([]byte, n-len(b))
	return append(padding, b...)
}
