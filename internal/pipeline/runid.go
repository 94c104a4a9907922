package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Run IDs are ULIDs: 26-character Crockford Base32 strings with a
// timestamp prefix, so listing runs sorts chronologically.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	// Timestamp in first 6 bytes (big-endian 48-bit).
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	// Random in remaining 10 bytes.
	rand.Read(b[6:])
	// Embed sequence in bytes 6-7 to ensure uniqueness within same ms.
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encode(b)
}

// encode renders 128 bits as 26 Crockford Base32 characters. The bit
// string is left-padded with two zero bits so the first character only
// carries the top three bits of the timestamp.
func encode(b [16]byte) string {
	bit := func(j int) byte {
		if j < 0 {
			return 0
		}
		return (b[j/8] >> (7 - j%8)) & 1
	}

	var out [26]byte
	for i := range out {
		var v byte
		for k := 0; k < 5; k++ {
			v = v<<1 | bit(i*5-2+k)
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}
