// Package ids generates identifiers for resources and users.
package ids

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const shortCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ShortLen is the length of Short ids.
const ShortLen = 6

var now = time.Now

// New returns "<unix millis>-<8 hex digits>".
func New() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%d-%08x", now().UnixMilli(), binary.BigEndian.Uint32(b[:]))
}

// UUID returns a random RFC 4122 version 4 UUID.
func UUID() string {
	return uuid.NewString()
}

// Short returns ShortLen characters drawn from [A-Za-z0-9].
func Short() string {
	out := make([]byte, ShortLen)
	max := big.NewInt(int64(len(shortCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(int64(i))
		}
		out[i] = shortCharset[n.Int64()]
	}
	return string(out)
}

// Prefixed returns "<prefix>-<short>-<NNNN>" where NNNN is the last four
// digits of the unix time in seconds.
func Prefixed(prefix string) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, Short(), now().Unix()%10000)
}

// ForType picks a prefix from a resource type name, e.g. "document" -> "doc".
func ForType(typeName string) string {
	p := typeName
	if len(p) > 3 {
		p = p[:3]
	}
	if p == "" {
		p = "res"
	}
	return Prefixed(p)
}
