package common

import (
	"time"
)

//lint:ignore U1000
type Date struct {
	Year  int32
	Month int32
	Day   int32
}

func (d *Date) Equal(o *Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

func (d *Date) Less(o *Date) bool {
	d1 := d.ToDate()
	o1 := o.ToDate()
	return d1.Before(o1)
}

func (d *Date) ToDate() time.Time {
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC)
}

// Epoch days with the proleptic Gregorian calendar, the parquet DATE unit.
func (d *Date) EpochDays() int32 {
	return int32(d.ToDate().Unix() / 86400)
}

func DateFromEpochDays(days int32) Date {
	t := time.Unix(int64(days)*86400, 0).UTC()
	y, m, day := t.Date()
	return Date{
		Year:  int32(y),
		Month: int32(m),
		Day:   int32(day),
	}
}
