package domain

import "time"

// Schedule defaults used when a source declares no working-time conversion factors.
const (
	DefaultMinutesPerDay  = 480
	DefaultMinutesPerWeek = 2400
	DefaultDaysPerMonth   = 20
)

// Project is the normalized in-memory model built by exactly one decoder and
// consumed by exactly one encoder. References between entities are identifier
// lookups into the owning collections, never pointers.
type Project struct {
	Properties   Properties
	Tasks        []*Task
	Resources    []*Resource
	Assignments  []*Assignment
	Calendars    []*Calendar
	Dependencies []*Dependency
}

type Properties struct {
	Name              string
	StartDate         *time.Time
	FinishDate        *time.Time
	DefaultCalendarID *int

	MinutesPerDay  int
	MinutesPerWeek int
	DaysPerMonth   int
}

// NewProject returns an empty project with the schedule defaults applied.
func NewProject(name string) *Project {
	return &Project{
		Properties: Properties{
			Name:           name,
			MinutesPerDay:  DefaultMinutesPerDay,
			MinutesPerWeek: DefaultMinutesPerWeek,
			DaysPerMonth:   DefaultDaysPerMonth,
		},
	}
}

func (p *Project) TaskByID(id int) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (p *Project) ResourceByID(id int) *Resource {
	for _, r := range p.Resources {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (p *Project) CalendarByID(id int) *Calendar {
	for _, c := range p.Calendars {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// DefaultCalendar returns the calendar referenced by the project properties, or nil.
func (p *Project) DefaultCalendar() *Calendar {
	if p.Properties.DefaultCalendarID == nil {
		return nil
	}
	return p.CalendarByID(*p.Properties.DefaultCalendarID)
}

// Children returns the tasks whose parent reference is id, in model order.
func (p *Project) Children(id int) []*Task {
	var out []*Task
	for _, t := range p.Tasks {
		if t.ParentID != nil && *t.ParentID == id {
			out = append(out, t)
		}
	}
	return out
}

// OutlineOrder returns the tasks depth-first by parent reference: roots in
// model order, each followed by its children in model order. Tasks a root
// cannot reach (a parent chain that loops) come last, in model order.
func (p *Project) OutlineOrder() []*Task {
	children := make(map[int][]*Task)
	known := make(map[int]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		known[t.ID] = true
	}
	var roots []*Task
	for _, t := range p.Tasks {
		if t.ParentID != nil && *t.ParentID != t.ID && known[*t.ParentID] {
			children[*t.ParentID] = append(children[*t.ParentID], t)
			continue
		}
		roots = append(roots, t)
	}

	out := make([]*Task, 0, len(p.Tasks))
	placed := make(map[*Task]bool, len(p.Tasks))
	var walk func(t *Task)
	walk = func(t *Task) {
		if placed[t] {
			return
		}
		placed[t] = true
		out = append(out, t)
		for _, c := range children[t.ID] {
			walk(c)
		}
	}
	for _, t := range roots {
		walk(t)
	}
	for _, t := range p.Tasks {
		walk(t)
	}
	return out
}

// Predecessors returns the dependencies whose successor is the given task, in model order.
func (p *Project) Predecessors(taskID int) []*Dependency {
	var out []*Dependency
	for _, d := range p.Dependencies {
		if d.SuccessorID == taskID {
			out = append(out, d)
		}
	}
	return out
}
