package wipe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrInvalidDelays is returned when the delay bounds are negative or
// inverted.
var ErrInvalidDelays = errors.New("invalid delays")

// Delays are the bounds of the pause before each deletion.
type Delays struct {
	Min time.Duration
	Max time.Duration
}

// maxDelayMs is the largest delay in milliseconds that fits time.Duration.
const maxDelayMs = math.MaxInt64 / int64(time.Millisecond)

// DelaysMs returns Delays for the bounds specified in milliseconds.
func DelaysMs(minMs, maxMs int) (Delays, error) {
	if int64(minMs) > maxDelayMs || int64(maxMs) > maxDelayMs {
		return Delays{}, fmt.Errorf("%w: delays can't exceed %d ms (min=%d, max=%d)", ErrInvalidDelays, maxDelayMs, minMs, maxMs)
	}
	d := Delays{
		Min: time.Duration(minMs) * time.Millisecond,
		Max: time.Duration(maxMs) * time.Millisecond,
	}
	if err := d.Validate(); err != nil {
		return Delays{}, err
	}
	return d, nil
}

func (d Delays) Validate() error {
	if d.Min < 0 || d.Max < 0 {
		return fmt.Errorf("%w: delays can't be negative (min=%s, max=%s)", ErrInvalidDelays, d.Min, d.Max)
	}
	if d.Min > d.Max {
		return fmt.Errorf("%w: minimum delay %s is greater than maximum %s", ErrInvalidDelays, d.Min, d.Max)
	}
	return nil
}

// Next returns the random duration in [Min, Max).
func (d Delays) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int64N(int64(d.Max-d.Min)))
}

func (d Delays) String() string {
	return fmt.Sprintf("%s-%s", d.Min, d.Max)
}

// Estimate returns the sentence with the estimated time to delete count
// messages with the delays d.  Fractions of the second are dropped.
func Estimate(count int, d Delays) string {
	avgMs := (float64(d.Min) + float64(d.Max)) / 2 / float64(time.Millisecond)
	totalSec := float64(count) * (avgMs / 1000)

	minutes := int64(math.Floor(totalSec / 60))
	seconds := int64(math.Floor(math.Mod(totalSec, 60)))
	hours := minutes / 60
	minutes = minutes % 60

	return fmt.Sprintf("Estimated time to delete %d messages: %d hours, %d minutes, and %d seconds.", count, hours, minutes, seconds)
}

// sleep pauses for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
