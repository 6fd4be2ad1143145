package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
	"github.com/alexanderramin/upf/internal/mspdi"
)

// XMLDecoder reads MSPDI documents.
type XMLDecoder struct{}

func (XMLDecoder) Format() format.Format { return format.XMLVariant }

func (XMLDecoder) Decode(r io.Reader) (*Result, error) {
	doc, err := mspdi.Parse(r)
	if err != nil {
		return nil, err
	}

	props, err := xmlProperties(doc)
	if err != nil {
		return nil, err
	}
	b := newBuilder(props)

	for i := range doc.Calendars.Calendars {
		cal, err := xmlCalendar(&doc.Calendars.Calendars[i])
		if err != nil {
			return nil, fmt.Errorf("calendar %d: %w", i, err)
		}
		if err := b.addCalendar(cal); err != nil {
			return nil, err
		}
	}

	var parents outlineStack
	for i := range doc.Tasks.Tasks {
		xt := &doc.Tasks.Tasks[i]
		t, err := xmlTask(xt)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		t.ParentID = parents.push(t.ID, t.OutlineLevel)
		if err := b.addTask(t); err != nil {
			return nil, err
		}
		for _, link := range xt.PredecessorLinks {
			d, err := xmlDependency(t.ID, link)
			if err != nil {
				return nil, fmt.Errorf("task %d predecessor: %w", t.ID, err)
			}
			b.addDependency(d)
		}
	}

	for i := range doc.Resources.Resources {
		res, err := xmlResource(&doc.Resources.Resources[i])
		if err != nil {
			return nil, fmt.Errorf("resource %d: %w", i, err)
		}
		if err := b.addResource(res); err != nil {
			return nil, err
		}
	}

	for i := range doc.Assignments.Assignments {
		xa := &doc.Assignments.Assignments[i]
		if xa.ResourceUID != nil && *xa.ResourceUID == mspdi.UnassignedResourceUID {
			continue
		}
		a, err := xmlAssignment(xa)
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
		b.addAssignment(a)
	}

	return b.build()
}

// outlineStack derives parent references from outline levels in document
// order. Level-1 tasks are top level; the level-0 project summary row is
// never a parent.
type outlineStack struct {
	ids    []int
	levels []int
}

func (s *outlineStack) push(id, level int) *int {
	for len(s.levels) > 0 && s.levels[len(s.levels)-1] >= level {
		s.ids = s.ids[:len(s.ids)-1]
		s.levels = s.levels[:len(s.levels)-1]
	}
	if level < 1 {
		return nil
	}
	var parent *int
	if n := len(s.ids); n > 0 {
		parent = domain.Ptr(s.ids[n-1])
	}
	s.ids = append(s.ids, id)
	s.levels = append(s.levels, level)
	return parent
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrCorruptStructure}, args...)...)
}

func optionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := mspdi.ParseDate(s)
	if err != nil {
		return nil, corruptf("%s: %v", field, err)
	}
	return &t, nil
}

func optionalDuration(field, s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	m, err := mspdi.ParseDuration(s)
	if err != nil {
		return nil, corruptf("%s: %v", field, err)
	}
	return &m, nil
}

func optionalUnits(field, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := mspdi.ParseUnits(s)
	if err != nil {
		return nil, corruptf("%s: %v", field, err)
	}
	return &v, nil
}

// calendarRef maps the schema's "no calendar" marker to nil.
func calendarRef(uid *int) *int {
	if uid == nil || *uid == mspdi.NoCalendarUID {
		return nil
	}
	return domain.Ptr(*uid)
}

func xmlProperties(doc *mspdi.Document) (domain.Properties, error) {
	props := domain.Properties{
		Name:              doc.Name,
		DefaultCalendarID: calendarRef(doc.CalendarUID),
		MinutesPerDay:     domain.Deref(doc.MinutesPerDay),
		MinutesPerWeek:    domain.Deref(doc.MinutesPerWeek),
		DaysPerMonth:      domain.Deref(doc.DaysPerMonth),
	}
	var err error
	if props.StartDate, err = optionalDate("project start", doc.StartDate); err != nil {
		return props, err
	}
	if props.FinishDate, err = optionalDate("project finish", doc.FinishDate); err != nil {
		return props, err
	}
	return props, nil
}

func xmlCalendar(xc *mspdi.Calendar) (*domain.Calendar, error) {
	if xc.UID == nil {
		return nil, corruptf("calendar without UID")
	}
	cal := &domain.Calendar{ID: *xc.UID, Name: xc.Name, BaseID: calendarRef(xc.BaseCalendarUID)}

	if xc.WeekDays != nil {
		for _, wd := range xc.WeekDays.WeekDays {
			intervals, err := xmlIntervals(wd.WorkingTimes)
			if err != nil {
				return nil, fmt.Errorf("calendar %d: %w", cal.ID, err)
			}
			switch {
			case wd.DayType == 0:
				if wd.TimePeriod == nil {
					continue
				}
				ex, err := xmlException(wd.TimePeriod, "", wd.DayWorking, intervals)
				if err != nil {
					return nil, fmt.Errorf("calendar %d: %w", cal.ID, err)
				}
				cal.Exceptions = append(cal.Exceptions, ex)
			case wd.DayType >= 1 && wd.DayType <= 7:
				cal.SetDay(domain.WeekDay{
					Day:       time.Weekday(wd.DayType - 1),
					Working:   wd.DayWorking != 0,
					Intervals: intervals,
				})
			default:
				return nil, corruptf("calendar %d: day type %d", cal.ID, wd.DayType)
			}
		}
	}

	if xc.Exceptions != nil {
		for _, xe := range xc.Exceptions.Exceptions {
			intervals, err := xmlIntervals(xe.WorkingTimes)
			if err != nil {
				return nil, fmt.Errorf("calendar %d: %w", cal.ID, err)
			}
			ex, err := xmlException(&xe.TimePeriod, xe.Name, xe.DayWorking, intervals)
			if err != nil {
				return nil, fmt.Errorf("calendar %d: %w", cal.ID, err)
			}
			cal.Exceptions = append(cal.Exceptions, ex)
		}
	}
	return cal, nil
}

func xmlIntervals(list *mspdi.WorkingTimeList) ([]domain.WorkingTime, error) {
	if list == nil {
		return nil, nil
	}
	var out []domain.WorkingTime
	for _, wt := range list.WorkingTimes {
		from, err := mspdi.ParseTimeOfDay(wt.FromTime, false)
		if err != nil {
			return nil, corruptf("working time: %v", err)
		}
		to, err := mspdi.ParseTimeOfDay(wt.ToTime, true)
		if err != nil {
			return nil, corruptf("working time: %v", err)
		}
		out = append(out, domain.WorkingTime{FromMin: from, ToMin: to})
	}
	return out, nil
}

func xmlException(tp *mspdi.TimePeriod, name string, working int, intervals []domain.WorkingTime) (domain.CalendarException, error) {
	from, err := mspdi.ParseDate(tp.FromDate)
	if err != nil {
		return domain.CalendarException{}, corruptf("exception start: %v", err)
	}
	to, err := mspdi.ParseDate(tp.ToDate)
	if err != nil {
		return domain.CalendarException{}, corruptf("exception end: %v", err)
	}
	return domain.CalendarException{
		Name:      name,
		From:      dateOnly(from),
		To:        dateOnly(to),
		Working:   working != 0,
		Intervals: intervals,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func xmlTask(xt *mspdi.Task) (*domain.Task, error) {
	if xt.UID == nil {
		return nil, corruptf("task without UID")
	}
	t := &domain.Task{
		ID:              *xt.UID,
		Name:            xt.Name,
		PercentComplete: xt.PercentComplete,
		CalendarID:      calendarRef(xt.CalendarUID),
		Milestone:       xt.Milestone != nil && *xt.Milestone != 0,
	}
	switch {
	case xt.OutlineLevel != nil:
		t.OutlineLevel = *xt.OutlineLevel
	case t.ID != 0:
		t.OutlineLevel = 1
	}

	var err error
	if t.Start, err = optionalDate(fmt.Sprintf("task %d start", t.ID), xt.Start); err != nil {
		return nil, err
	}
	if t.Finish, err = optionalDate(fmt.Sprintf("task %d finish", t.ID), xt.Finish); err != nil {
		return nil, err
	}
	if t.DurationMin, err = optionalDuration(fmt.Sprintf("task %d duration", t.ID), xt.Duration); err != nil {
		return nil, err
	}
	return t, nil
}

func xmlDependency(successor int, link mspdi.PredecessorLink) (*domain.Dependency, error) {
	if link.PredecessorUID == nil {
		return nil, corruptf("link without PredecessorUID")
	}
	d := &domain.Dependency{
		PredecessorID: *link.PredecessorUID,
		SuccessorID:   successor,
		Type:          domain.LinkFinishToStart,
	}
	if link.Type != nil {
		lt, ok := mspdi.LinkTypeFromCode(*link.Type)
		if !ok {
			return nil, corruptf("link type %d", *link.Type)
		}
		d.Type = lt
	}
	if link.LinkLag != nil {
		d.LagMin = tenthsToMinutes(int64(*link.LinkLag))
	}
	return d, nil
}

func xmlResource(xr *mspdi.Resource) (*domain.Resource, error) {
	if xr.UID == nil {
		return nil, corruptf("resource without UID")
	}
	res := &domain.Resource{ID: *xr.UID, Name: xr.Name, CalendarID: calendarRef(xr.CalendarUID)}
	var err error
	if res.MaxUnits, err = optionalUnits(fmt.Sprintf("resource %d max units", res.ID), xr.MaxUnits); err != nil {
		return nil, err
	}
	return res, nil
}

func xmlAssignment(xa *mspdi.Assignment) (*domain.Assignment, error) {
	if xa.TaskUID == nil || xa.ResourceUID == nil {
		return nil, corruptf("assignment without task or resource UID")
	}
	a := &domain.Assignment{TaskID: *xa.TaskUID, ResourceID: *xa.ResourceUID}
	var err error
	if a.Units, err = optionalUnits("assignment units", xa.Units); err != nil {
		return nil, err
	}
	if a.WorkMin, err = optionalDuration("assignment work", xa.Work); err != nil {
		return nil, err
	}
	return a, nil
}
