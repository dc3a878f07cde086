package utils

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyLock sync.Mutex
	entropy     = ulid.Monotonic(rand.Reader, 0)
)

// GenerateULID returns a new ULID. IDs generated by one process sort in
// generation order, including within the same millisecond.
func GenerateULID() ulid.ULID {
	return GenerateULIDWithTime(time.Now())
}

// GenerateULIDString generates a new ULID as a string
func GenerateULIDString() string {
	return GenerateULID().String()
}

// GenerateULIDWithTime generates a ULID carrying t as its timestamp.
func GenerateULIDWithTime(t time.Time) ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		// monotonic entropy overflowed within one millisecond
		return ulid.Make()
	}
	return id
}

// ParseULID parses a ULID string
func ParseULID(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}
