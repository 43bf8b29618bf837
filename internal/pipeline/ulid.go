package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 26 Crockford Base32 characters encoding a 48-bit
// millisecond timestamp followed by 80 random bits, so IDs sort by
// submission time. Generated locally to avoid an extra dependency.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	idMu   sync.Mutex
	idLast uint64
	idSeq  uint16
)

func newJobID() string {
	idMu.Lock()
	defer idMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == idLast {
		idSeq++
	} else {
		idLast = ts
		idSeq = 0
	}

	var b [16]byte
	// Timestamp fills b[0:6]; a per-millisecond sequence in b[6:8] keeps
	// IDs minted within the same millisecond unique.
	binary.BigEndian.PutUint64(b[:8], ts<<16)
	binary.BigEndian.PutUint16(b[6:8], idSeq)
	rand.Read(b[8:])

	// Crockford Base32: walk the 128-bit value five bits at a time.
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
