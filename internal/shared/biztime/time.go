// Package biztime holds the clock and the business timezone. Storage and
// transport stay in UTC; the zone only shapes dates rendered for users.
package biztime

import (
	"fmt"
	"math"
	"sync"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "America/Argentina/Buenos_Aires"

var (
	mu       sync.RWMutex
	location *time.Location
)

// Init sets the business timezone. An empty name selects DefaultTimezone.
func Init(name string) error {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}

	mu.Lock()
	location = loc
	mu.Unlock()
	return nil
}

// Location returns the business timezone, falling back to DefaultTimezone
// when Init was never called.
func Location() *time.Location {
	mu.RLock()
	loc := location
	mu.RUnlock()
	if loc != nil {
		return loc
	}

	if err := Init(""); err != nil {
		panic(err)
	}
	return Location()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

// DaysUntil counts started days from now to target. It is zero once target
// is not in the future.
func DaysUntil(now, target time.Time) int {
	if !target.After(now) {
		return 0
	}
	return int(math.Ceil(target.Sub(now).Hours() / 24))
}

// FormatInBizTimezone renders t in the business timezone.
func FormatInBizTimezone(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
