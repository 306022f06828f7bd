// Package pgtypes adapts PostgreSQL column types to the Go types the sync
// state uses.
package pgtypes

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	microsPerDay = int64(24 * time.Hour / time.Microsecond)

	// monthDays is the length of an INTERVAL month when converted to a duration
	monthDays = 30
)

// Interval is a nullable INTERVAL column read and written as a time.Duration.
// It plugs into pgx through pgtype.IntervalScanner and pgtype.IntervalValuer.
type Interval struct {
	Duration time.Duration
	Valid    bool
}

var (
	_ pgtype.IntervalScanner = (*Interval)(nil)
	_ pgtype.IntervalValuer  = Interval{}
)

// IntervalOf returns a non-null interval holding d
func IntervalOf(d time.Duration) Interval {
	return Interval{Duration: d, Valid: true}
}

// ScanInterval implements pgtype.IntervalScanner
func (i *Interval) ScanInterval(v pgtype.Interval) error {
	if !v.Valid {
		*i = Interval{}
		return nil
	}
	micros := v.Microseconds + int64(v.Days)*microsPerDay + int64(v.Months)*monthDays*microsPerDay
	if micros < 0 {
		return fmt.Errorf("negative interval %d microseconds", micros)
	}
	*i = IntervalOf(time.Duration(micros) * time.Microsecond)
	return nil
}

// IntervalValue implements pgtype.IntervalValuer. Whole days go to the Days
// field so the column reads back as e.g. "1 day 02:00:00".
func (i Interval) IntervalValue() (pgtype.Interval, error) {
	if !i.Valid {
		return pgtype.Interval{}, nil
	}
	micros := i.Duration.Microseconds()
	return pgtype.Interval{
		Days:         int32(micros / microsPerDay), // #nosec G115 -- sync intervals are far below the int32 day range
		Microseconds: micros % microsPerDay,
		Valid:        true,
	}, nil
}

// Or returns the duration, or def when the interval is NULL
func (i Interval) Or(def time.Duration) time.Duration {
	if !i.Valid {
		return def
	}
	return i.Duration
}

// String returns the duration text, or "NULL"
func (i Interval) String() string {
	if !i.Valid {
		return "NULL"
	}
	return i.Duration.String()
}
