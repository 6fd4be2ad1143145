package domain

import "fmt"

// ValidationErrors checks the model invariants and returns every violation found.
func (p *Project) ValidationErrors() []error {
	var errs []error

	calendarIDs := make(map[int]bool, len(p.Calendars))
	for i, c := range p.Calendars {
		if calendarIDs[c.ID] {
			errs = append(errs, fmt.Errorf("calendars[%d]: duplicate id %d", i, c.ID))
		}
		calendarIDs[c.ID] = true
	}
	if len(p.Calendars) == 0 {
		errs = append(errs, fmt.Errorf("project declares no calendar"))
	}
	if id := p.Properties.DefaultCalendarID; id != nil && !calendarIDs[*id] {
		errs = append(errs, fmt.Errorf("properties.default_calendar: calendar %d not found", *id))
	}
	errs = append(errs, p.validateCalendars(calendarIDs)...)

	taskIDs := make(map[int]bool, len(p.Tasks))
	for i, t := range p.Tasks {
		if taskIDs[t.ID] {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate id %d", i, t.ID))
		}
		taskIDs[t.ID] = true
	}
	for i, t := range p.Tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		if t.ParentID != nil {
			if *t.ParentID == t.ID {
				errs = append(errs, fmt.Errorf("%s: task %d is its own parent", prefix, t.ID))
			} else if !taskIDs[*t.ParentID] {
				errs = append(errs, fmt.Errorf("%s.parent: task %d not found", prefix, *t.ParentID))
			}
		}
		if t.CalendarID != nil && !calendarIDs[*t.CalendarID] {
			errs = append(errs, fmt.Errorf("%s.calendar: calendar %d not found", prefix, *t.CalendarID))
		}
		if t.PercentComplete != nil && (*t.PercentComplete < 0 || *t.PercentComplete > 100) {
			errs = append(errs, fmt.Errorf("%s.percent_complete: %d out of range", prefix, *t.PercentComplete))
		}
		if t.OutlineLevel < 0 {
			errs = append(errs, fmt.Errorf("%s.outline_level: %d is negative", prefix, t.OutlineLevel))
		}
	}

	resourceIDs := make(map[int]bool, len(p.Resources))
	for i, r := range p.Resources {
		if resourceIDs[r.ID] {
			errs = append(errs, fmt.Errorf("resources[%d]: duplicate id %d", i, r.ID))
		}
		resourceIDs[r.ID] = true
		if r.CalendarID != nil && !calendarIDs[*r.CalendarID] {
			errs = append(errs, fmt.Errorf("resources[%d].calendar: calendar %d not found", i, *r.CalendarID))
		}
	}

	pairs := make(map[[2]int]bool, len(p.Assignments))
	for i, a := range p.Assignments {
		prefix := fmt.Sprintf("assignments[%d]", i)
		if !taskIDs[a.TaskID] {
			errs = append(errs, fmt.Errorf("%s.task: task %d not found", prefix, a.TaskID))
		}
		if !resourceIDs[a.ResourceID] {
			errs = append(errs, fmt.Errorf("%s.resource: resource %d not found", prefix, a.ResourceID))
		}
		key := [2]int{a.TaskID, a.ResourceID}
		if pairs[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate assignment of resource %d to task %d", prefix, a.ResourceID, a.TaskID))
		}
		pairs[key] = true
	}

	for i, d := range p.Dependencies {
		prefix := fmt.Sprintf("dependencies[%d]", i)
		if !taskIDs[d.PredecessorID] {
			errs = append(errs, fmt.Errorf("%s.predecessor: task %d not found", prefix, d.PredecessorID))
		}
		if !taskIDs[d.SuccessorID] {
			errs = append(errs, fmt.Errorf("%s.successor: task %d not found", prefix, d.SuccessorID))
		}
		if d.PredecessorID == d.SuccessorID {
			errs = append(errs, fmt.Errorf("%s: self-dependency on task %d", prefix, d.PredecessorID))
		}
		if !ValidLinkTypes[d.Type] {
			errs = append(errs, fmt.Errorf("%s.type: invalid value %q", prefix, d.Type))
		}
	}

	return errs
}

func (p *Project) validateCalendars(calendarIDs map[int]bool) []error {
	var errs []error
	for i, c := range p.Calendars {
		prefix := fmt.Sprintf("calendars[%d]", i)
		if c.BaseID != nil {
			base := p.CalendarByID(*c.BaseID)
			switch {
			case *c.BaseID == c.ID:
				errs = append(errs, fmt.Errorf("%s: calendar %d derives from itself", prefix, c.ID))
			case !calendarIDs[*c.BaseID]:
				errs = append(errs, fmt.Errorf("%s.base: calendar %d not found", prefix, *c.BaseID))
			case base != nil && base.BaseID != nil:
				errs = append(errs, fmt.Errorf("%s.base: calendar %d is itself derived", prefix, *c.BaseID))
			}
		}
		for _, wd := range c.WeekDays {
			for _, wt := range wd.Intervals {
				if err := wt.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("%s.%s: %w", prefix, wd.Day, err))
				}
			}
		}
		for j, ex := range c.Exceptions {
			if ex.To.Before(ex.From) {
				errs = append(errs, fmt.Errorf("%s.exceptions[%d]: ends before it starts", prefix, j))
			}
			for _, wt := range ex.Intervals {
				if err := wt.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("%s.exceptions[%d]: %w", prefix, j, err))
				}
			}
		}
	}
	return errs
}

// Validate returns an error wrapping ErrCorruptStructure when any invariant is violated.
func (p *Project) Validate() error {
	errs := p.ValidationErrors()
	if len(errs) == 0 {
		return nil
	}
	msg := fmt.Sprintf("project model invalid (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%w: %s", ErrCorruptStructure, msg)
}
