// Package id issues run identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID for the current time. IDs issued within the same
// millisecond still sort in issue order.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a ULID whose timestamp part is t.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(t.UTC()), entropy)
	if err != nil {
		panic(err)
	}
	return v.String()
}

// Time extracts the timestamp of a run ID.
func Time(s string) (time.Time, error) {
	v, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(v.Time()).UTC(), nil
}
