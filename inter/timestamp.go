// Package inter holds the wire-level types shared by every component of the
// process: timestamps, addresses, inbound messages, outbound notices and the
// environment descriptor.
package inter

import (
	"strconv"
	"time"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
)

// Timestamp is a UNIX time in milliseconds, as carried by messages.
type Timestamp uint64

const (
	Second Timestamp = 1000
	Minute           = 60 * Second
	Hour             = 60 * Minute
	Day              = 24 * Hour
	Year             = 365 * Day
)

// Bytes returns the big-endian encoding of the timestamp.
func (t Timestamp) Bytes() []byte {
	return bigendian.Uint64ToBytes(uint64(t))
}

// Time converts the timestamp for display. It is never used in state transitions.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t/Second), int64(t%Second)*int64(time.Millisecond)).UTC()
}

func (t Timestamp) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// MaxTimestamp returns the latest of the given timestamps.
func MaxTimestamp(tt ...Timestamp) Timestamp {
	var max Timestamp
	for _, t := range tt {
		if t > max {
			max = t
		}
	}
	return max
}

// Duration converts a time.Duration into a millisecond Timestamp span.
func Duration(d time.Duration) Timestamp {
	return Timestamp(d / time.Millisecond)
}
