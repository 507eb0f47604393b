package core

import (
	"fmt"
	"time"
)

// Month is a (year, month) pair with total ordering. It replaces ad-hoc
// "2024-03" string keys so month arithmetic cannot drift across year
// boundaries.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Prev returns the month immediately before m.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Next returns the month immediately after m.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// After reports whether m is strictly later than other.
func (m Month) After(other Month) bool {
	return other.Before(m)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String formats the month as "2006-01" for keys and logs.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Name formats the month for humans, e.g. "March 2024".
func (m Month) Name() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

// MonthRange returns every calendar month from first through last
// inclusive. The range is finite and in ascending order; an inverted
// range yields nil.
func MonthRange(first, last Month) []Month {
	if last.Before(first) {
		return nil
	}
	var out []Month
	for m := first; !m.After(last); m = m.Next() {
		out = append(out, m)
	}
	return out
}
