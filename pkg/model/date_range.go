package model

import "time"

// DateRange is a closed interval of calendar days. Endpoints are kept at
// midnight UTC; a single-day range has StartDate == EndDate.
type DateRange struct {
	StartDate time.Time `json:"startDate" bson:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" bson:"endDate" validate:"required"`
}

// NormalizeDate strips the time-of-day component and keeps the UTC calendar
// date. Every comparison between ranges goes through this so that both sides
// are on the same granularity.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r DateRange) Normalize() DateRange {
	return DateRange{
		StartDate: NormalizeDate(r.StartDate),
		EndDate:   NormalizeDate(r.EndDate),
	}
}

// Valid reports whether the range is well-ordered. Same-day ranges are valid.
func (r DateRange) Valid() bool {
	n := r.Normalize()
	return !n.EndDate.Before(n.StartDate)
}

// Overlaps reports whether two ranges share at least one calendar day.
// Boundaries count: a range ending on the day another begins conflicts.
func (r DateRange) Overlaps(other DateRange) bool {
	a := r.Normalize()
	b := other.Normalize()
	return !a.StartDate.After(b.EndDate) && !a.EndDate.Before(b.StartDate)
}

// Equal reports whether two ranges denote the same calendar days.
func (r DateRange) Equal(other DateRange) bool {
	a := r.Normalize()
	b := other.Normalize()
	return a.StartDate.Equal(b.StartDate) && a.EndDate.Equal(b.EndDate)
}
