// Package bitmap provides densely-packed bit strings used to represent the
// contents of classical registers after measurement.
package bitmap

import (
	"fmt"
	"strings"
)

const byteSize = 8

// A Dense is a bitmap where every bit is explicitly represented. Bit 0 is the
// least significant bit of the register it describes.
type Dense struct {
	bits []byte
	len  int
}

// NewDense returns a new dense bitmap whose data is a copy of data, and whose
// length is bitLen. If bitLen is longer than data, then trailing zeros are
// added. If bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * byteSize
	}
	b := make([]byte, bytesFor(bitLen))
	copy(b, data)
	r := Dense{bits: b, len: bitLen}
	r.fixLastByte()
	return r
}

// FromString parses a string of '1's and '0's written with the highest index
// first, i.e. the way measurement counts are keyed. Spaces are ignored.
func FromString(s string) (Dense, error) {
	var digits []bool
	for _, c := range s {
		switch c {
		case '1':
			digits = append(digits, true)
		case '0':
			digits = append(digits, false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitmap string rep: %q", s)
		}
	}
	var d Dense
	for i := len(digits) - 1; i >= 0; i-- {
		d.AppendBit(digits[i])
	}
	return d, nil
}

// Get returns the i-th bit in this bitmap. Bits past the end read as zero.
func (d Dense) Get(i int) bool {
	if i < 0 || i >= d.len {
		return false
	}
	return 0 < d.bits[i/byteSize]&(1<<(i%byteSize))
}

// Set assigns the i-th bit. It panics if i is out of range, like a slice
// index would.
func (d *Dense) Set(i int, bit bool) {
	if i < 0 || i >= d.len {
		panic(fmt.Sprintf("bitmap: index %d out of range [0, %d)", i, d.len))
	}
	j, pos := i/byteSize, i%byteSize
	if bit {
		d.bits[j] |= 1 << pos
	} else {
		d.bits[j] &^= 1 << pos
	}
}

// Size returns the number of bits in this bitmap.
func (d Dense) Size() int {
	return d.len
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	i, pos := d.len/byteSize, d.len%byteSize
	d.len++
	if pos == 0 {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[i] |= 1 << pos
	}
}

// String renders d with the highest index first, so that a register holding
// the value 6 in three bits prints as "110".
func (d Dense) String() string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := d.len - 1; i >= 0; i-- {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (d *Dense) fixLastByte() {
	off := d.len % byteSize
	if off == 0 || len(d.bits) == 0 {
		return
	}
	d.bits[len(d.bits)-1] &= 0xFF >> (byteSize - off)
}

// Slice copies bits [start, end) of d into a new bitmap.
func Slice(d Dense, start, end int) (Dense, error) {
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bitmap with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bitmap to negative length: %d", end-start)
	}
	if end > d.len {
		return Dense{}, fmt.Errorf("slicing bitmap of len %d up to %d", d.len, end)
	}
	var r Dense
	for i := start; i < end; i++ {
		r.AppendBit(d.Get(i))
	}
	return r, nil
}

// Uint interprets d as an unsigned little-endian integer. Bits beyond the
// 64th are ignored.
func Uint(d Dense) uint64 {
	var v uint64
	for i := 0; i < d.len && i < 64; i++ {
		if d.Get(i) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// bytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func bytesFor(bits int) int {
	return (bits + byteSize - 1) / byteSize
}
