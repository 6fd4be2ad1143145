package domain

import (
	"fmt"
	"time"
)

// MinutesPerDayClock is the number of minutes in a calendar day; a WorkingTime
// ending at midnight has ToMin == MinutesPerDayClock.
const MinutesPerDayClock = 24 * 60

// Calendar is a named working-time definition. A calendar may derive from one
// base calendar; derivation is single-level once a decoder has finished.
type Calendar struct {
	ID         int
	Name       string
	BaseID     *int
	WeekDays   []WeekDay
	Exceptions []CalendarException
}

// WeekDay defines working time for one day of the week. Days absent from a
// derived calendar are inherited from its base.
type WeekDay struct {
	Day       time.Weekday
	Working   bool
	Intervals []WorkingTime
}

// WorkingTime is a half-open interval expressed in minutes after midnight.
type WorkingTime struct {
	FromMin int
	ToMin   int
}

type CalendarException struct {
	Name      string
	From      time.Time
	To        time.Time
	Working   bool
	Intervals []WorkingTime
}

func (w WorkingTime) Validate() error {
	if w.FromMin < 0 || w.ToMin > MinutesPerDayClock || w.FromMin >= w.ToMin {
		return fmt.Errorf("working time %d-%d is not a valid interval", w.FromMin, w.ToMin)
	}
	return nil
}

func (w WorkingTime) Minutes() int {
	return w.ToMin - w.FromMin
}

// Day returns the definition for d and whether the calendar defines it.
func (c *Calendar) Day(d time.Weekday) (WeekDay, bool) {
	for _, wd := range c.WeekDays {
		if wd.Day == d {
			return wd, true
		}
	}
	return WeekDay{}, false
}

// SetDay replaces or inserts a day definition, keeping WeekDays ordered Sunday first.
func (c *Calendar) SetDay(wd WeekDay) {
	for i := range c.WeekDays {
		if c.WeekDays[i].Day == wd.Day {
			c.WeekDays[i] = wd
			return
		}
	}
	idx := len(c.WeekDays)
	for i := range c.WeekDays {
		if c.WeekDays[i].Day > wd.Day {
			idx = i
			break
		}
	}
	c.WeekDays = append(c.WeekDays, WeekDay{})
	copy(c.WeekDays[idx+1:], c.WeekDays[idx:])
	c.WeekDays[idx] = wd
}

// IsBase reports whether the calendar derives from no other calendar.
func (c *Calendar) IsBase() bool {
	return c.BaseID == nil
}

// StandardCalendar returns the built-in five-day, eight-hour calendar used
// when a source declares none.
func StandardCalendar(id int) *Calendar {
	workday := []WorkingTime{
		{FromMin: 8 * 60, ToMin: 12 * 60},
		{FromMin: 13 * 60, ToMin: 17 * 60},
	}
	cal := &Calendar{ID: id, Name: "Standard"}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d == time.Sunday || d == time.Saturday {
			cal.WeekDays = append(cal.WeekDays, WeekDay{Day: d})
			continue
		}
		intervals := make([]WorkingTime, len(workday))
		copy(intervals, workday)
		cal.WeekDays = append(cal.WeekDays, WeekDay{Day: d, Working: true, Intervals: intervals})
	}
	return cal
}
