package vault

import (
	"encoding/binary"
	"strconv"
	"strings"
)

/*
	ID is a 64-bit object locator.

0...............16..............................................64
+-------+-------+-------+-------+-------+-------+-------+-------+
|..source.(16)..|...................sequence.(48)...............|
*/
type ID uint64

const seqBits = 48
const SeqMask = uint64(1<<seqBits) - 1

var BadId = ID(0xffffffffffffffff)

func NewID(src uint16, seq uint64) ID {
	return ID(uint64(src)<<seqBits | seq&SeqMask)
}

func (id ID) Src() uint16 {
	return uint16(uint64(id) >> seqBits)
}

func (id ID) Seq() uint64 {
	return uint64(id) & SeqMask
}

// Bytes is the big-endian form, so pebble iterates in numeric order.
func (id ID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func IDFromBytes(b []byte) ID {
	if len(b) != 8 {
		return BadId
	}
	return ID(binary.BigEndian.Uint64(b))
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id.Src()), 16) + "-" + strconv.FormatUint(id.Seq(), 16)
}

func IDFromString(s string) ID {
	src, seq, ok := strings.Cut(s, "-")
	if !ok {
		return BadId
	}
	srcv, err := strconv.ParseUint(src, 16, 16)
	if err != nil {
		return BadId
	}
	seqv, err := strconv.ParseUint(seq, 16, 64)
	if err != nil || seqv > SeqMask {
		return BadId
	}
	return NewID(uint16(srcv), seqv)
}
