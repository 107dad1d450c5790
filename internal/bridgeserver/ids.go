package bridgeserver

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"
)

var idCounter atomic.Uint32

// newID returns a 24 hex character id: a 4 byte unix timestamp, a 3 byte
// process counter and 5 random bytes. Ids sort in creation order, so bbolt
// cursors list buckets and files oldest first.
func newID(now time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(now.Unix()))
	c := idCounter.Add(1)
	b[4] = byte(c >> 16)
	b[5] = byte(c >> 8)
	b[6] = byte(c)
	if _, err := rand.Read(b[7:]); err != nil {
		panic("bridgeserver: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
