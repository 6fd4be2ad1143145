package importer

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/upf/internal/domain"
)

// builder collects entity records from a decoder and resolves the weak
// references between them. Hard violations (bad or duplicate IDs) fail the
// decode; soft ones are dropped or cleared with an advisory note.
type builder struct {
	project *domain.Project
	notes   []domain.Note

	taskIDs     map[int]bool
	resourceIDs map[int]bool
	calendarIDs map[int]bool

	assignments  []*domain.Assignment
	dependencies []*domain.Dependency
}

func newBuilder(props domain.Properties) *builder {
	props.MinutesPerDay = domain.CoalesceInt(domain.DefaultMinutesPerDay, props.MinutesPerDay)
	props.MinutesPerWeek = domain.CoalesceInt(domain.DefaultMinutesPerWeek, props.MinutesPerWeek)
	props.DaysPerMonth = domain.CoalesceInt(domain.DefaultDaysPerMonth, props.DaysPerMonth)
	return &builder{
		project:     &domain.Project{Properties: props},
		taskIDs:     make(map[int]bool),
		resourceIDs: make(map[int]bool),
		calendarIDs: make(map[int]bool),
	}
}

func (b *builder) note(code domain.NoteCode, format string, args ...any) {
	b.notes = append(b.notes, domain.Notef(code, format, args...))
}

func (b *builder) addCalendar(c *domain.Calendar) error {
	if c.ID < 0 {
		return fmt.Errorf("%w: calendar id %d is invalid", domain.ErrCorruptStructure, c.ID)
	}
	if b.calendarIDs[c.ID] {
		return fmt.Errorf("%w: duplicate calendar id %d", domain.ErrCorruptStructure, c.ID)
	}
	for _, wd := range c.WeekDays {
		for _, wt := range wd.Intervals {
			if err := wt.Validate(); err != nil {
				return fmt.Errorf("%w: calendar %d %s: %v", domain.ErrCorruptStructure, c.ID, wd.Day, err)
			}
		}
	}
	for _, ex := range c.Exceptions {
		if ex.To.Before(ex.From) {
			return fmt.Errorf("%w: calendar %d exception %q ends before it starts", domain.ErrCorruptStructure, c.ID, ex.Name)
		}
		for _, wt := range ex.Intervals {
			if err := wt.Validate(); err != nil {
				return fmt.Errorf("%w: calendar %d exception %q: %v", domain.ErrCorruptStructure, c.ID, ex.Name, err)
			}
		}
	}
	b.calendarIDs[c.ID] = true
	b.project.Calendars = append(b.project.Calendars, c)
	return nil
}

func (b *builder) addTask(t *domain.Task) error {
	if t.ID < 0 {
		return fmt.Errorf("%w: task id %d is invalid", domain.ErrCorruptStructure, t.ID)
	}
	if b.taskIDs[t.ID] {
		return fmt.Errorf("%w: duplicate task id %d", domain.ErrCorruptStructure, t.ID)
	}
	if t.PercentComplete != nil && (*t.PercentComplete < 0 || *t.PercentComplete > 100) {
		return fmt.Errorf("%w: task %d percent complete %d out of range", domain.ErrCorruptStructure, t.ID, *t.PercentComplete)
	}
	if t.OutlineLevel < 0 {
		return fmt.Errorf("%w: task %d outline level %d is negative", domain.ErrCorruptStructure, t.ID, t.OutlineLevel)
	}
	b.taskIDs[t.ID] = true
	b.project.Tasks = append(b.project.Tasks, t)
	return nil
}

func (b *builder) addResource(r *domain.Resource) error {
	if r.ID < 0 {
		return fmt.Errorf("%w: resource id %d is invalid", domain.ErrCorruptStructure, r.ID)
	}
	if b.resourceIDs[r.ID] {
		return fmt.Errorf("%w: duplicate resource id %d", domain.ErrCorruptStructure, r.ID)
	}
	b.resourceIDs[r.ID] = true
	b.project.Resources = append(b.project.Resources, r)
	return nil
}

// addAssignment and addDependency defer resolution to build, since sources
// may list links before the entities they reference.
func (b *builder) addAssignment(a *domain.Assignment) {
	b.assignments = append(b.assignments, a)
}

func (b *builder) addDependency(d *domain.Dependency) {
	b.dependencies = append(b.dependencies, d)
}

// build resolves references and returns the finished project.
func (b *builder) build() (*Result, error) {
	b.resolveCalendars()
	b.resolveDefaultCalendar()
	b.resolveTasks()
	b.resolveOutline()
	b.resolveResources()
	b.resolveAssignments()
	b.resolveDependencies()

	if err := b.project.Validate(); err != nil {
		return nil, err
	}
	return &Result{Project: b.project, Notes: b.notes}, nil
}

func (b *builder) resolveCalendars() {
	cals := b.project.Calendars
	for _, c := range cals {
		if c.BaseID != nil && !b.calendarIDs[*c.BaseID] {
			b.note(domain.NoteDanglingCalendar, "calendar %d derives from unknown calendar %d; derivation removed", c.ID, *c.BaseID)
			c.BaseID = nil
		}
	}
	for _, c := range cals {
		b.flatten(c)
	}
}

// flatten reduces c's derivation chain to a single level. Intermediate
// calendars contribute the days and exceptions c does not define itself.
// A chain that revisits a calendar loses c's own derivation link.
func (b *builder) flatten(c *domain.Calendar) {
	if c.BaseID == nil {
		return
	}
	seen := map[int]bool{c.ID: true}
	var chain []*domain.Calendar
	cur := b.project.CalendarByID(*c.BaseID)
	for {
		if seen[cur.ID] {
			b.note(domain.NoteCalendarCycle, "calendar %d has a cyclic derivation through calendar %d; derivation removed", c.ID, cur.ID)
			c.BaseID = nil
			return
		}
		seen[cur.ID] = true
		if cur.BaseID == nil {
			break
		}
		chain = append(chain, cur)
		cur = b.project.CalendarByID(*cur.BaseID)
	}
	if len(chain) == 0 {
		return
	}

	for _, mid := range chain {
		for _, wd := range mid.WeekDays {
			if _, ok := c.Day(wd.Day); !ok {
				c.SetDay(copyWeekDay(wd))
			}
		}
		for _, ex := range mid.Exceptions {
			if !hasException(c, ex) {
				c.Exceptions = append(c.Exceptions, copyException(ex))
			}
		}
	}
	slices.SortStableFunc(c.Exceptions, func(a, e domain.CalendarException) int {
		return a.From.Compare(e.From)
	})
	root := cur.ID
	c.BaseID = &root
	b.note(domain.NoteCalendarFlattened, "calendar %d derived through %d intermediate calendar(s); now derives from calendar %d", c.ID, len(chain), root)
}

func (b *builder) resolveDefaultCalendar() {
	props := &b.project.Properties
	if len(b.project.Calendars) == 0 {
		std := domain.StandardCalendar(1)
		b.calendarIDs[std.ID] = true
		b.project.Calendars = append(b.project.Calendars, std)
		props.DefaultCalendarID = domain.Ptr(std.ID)
		return
	}
	first := b.project.Calendars[0].ID
	if props.DefaultCalendarID == nil {
		props.DefaultCalendarID = domain.Ptr(first)
		return
	}
	if !b.calendarIDs[*props.DefaultCalendarID] {
		b.note(domain.NoteDanglingCalendar, "default calendar %d not found; using calendar %d", *props.DefaultCalendarID, first)
		props.DefaultCalendarID = domain.Ptr(first)
	}
}

func (b *builder) resolveTasks() {
	for _, t := range b.project.Tasks {
		if t.ParentID != nil && (*t.ParentID == t.ID || !b.taskIDs[*t.ParentID]) {
			b.note(domain.NoteDanglingParent, "task %d references unknown parent %d; parent cleared", t.ID, *t.ParentID)
			t.ParentID = nil
		}
		if t.CalendarID != nil && !b.calendarIDs[*t.CalendarID] {
			b.note(domain.NoteDanglingCalendar, "task %d references unknown calendar %d; calendar cleared", t.ID, *t.CalendarID)
			t.CalendarID = nil
		}
	}
}

// resolveOutline makes the parent references authoritative. A parent chain
// that loops is cut where it closes, and each outline level is set to the
// depth of its task in the parent tree. Level 0 is kept for parentless
// summary rows, which cannot have children of their own.
func (b *builder) resolveOutline() {
	p := b.project
	byID := make(map[int]*domain.Task, len(p.Tasks))
	for _, t := range p.Tasks {
		byID[t.ID] = t
	}
	for _, t := range p.Tasks {
		seen := map[int]bool{t.ID: true}
		for cur := t; cur.ParentID != nil; cur = byID[*cur.ParentID] {
			if seen[*cur.ParentID] {
				b.note(domain.NoteParentCycle, "task %d closes a parent cycle through task %d; parent cleared", cur.ID, *cur.ParentID)
				cur.ParentID = nil
				break
			}
			seen[*cur.ParentID] = true
		}
	}

	levels := make(map[int]int, len(p.Tasks))
	for _, t := range p.OutlineOrder() {
		level := 1
		switch {
		case t.ParentID == nil && t.OutlineLevel == 0:
			level = 0
		case t.ParentID != nil && levels[*t.ParentID] == 0:
			b.note(domain.NoteOutlineAdjusted, "task %d is parented to summary row %d; parent cleared", t.ID, *t.ParentID)
			t.ParentID = nil
		case t.ParentID != nil:
			level = levels[*t.ParentID] + 1
		}
		if t.OutlineLevel != level {
			b.note(domain.NoteOutlineAdjusted, "task %d outline level %d disagrees with its parent; level set to %d", t.ID, t.OutlineLevel, level)
			t.OutlineLevel = level
		}
		levels[t.ID] = level
	}
}

func (b *builder) resolveResources() {
	for _, r := range b.project.Resources {
		if r.CalendarID != nil && !b.calendarIDs[*r.CalendarID] {
			b.note(domain.NoteDanglingCalendar, "resource %d references unknown calendar %d; calendar cleared", r.ID, *r.CalendarID)
			r.CalendarID = nil
		}
	}
}

func (b *builder) resolveAssignments() {
	seen := make(map[[2]int]bool, len(b.assignments))
	for _, a := range b.assignments {
		switch {
		case !b.taskIDs[a.TaskID]:
			b.note(domain.NoteDanglingTask, "assignment of resource %d references unknown task %d; dropped", a.ResourceID, a.TaskID)
			continue
		case !b.resourceIDs[a.ResourceID]:
			b.note(domain.NoteDanglingResource, "assignment on task %d references unknown resource %d; dropped", a.TaskID, a.ResourceID)
			continue
		}
		key := [2]int{a.TaskID, a.ResourceID}
		if seen[key] {
			b.note(domain.NoteDuplicateAssignment, "resource %d assigned to task %d more than once; duplicate dropped", a.ResourceID, a.TaskID)
			continue
		}
		seen[key] = true
		b.project.Assignments = append(b.project.Assignments, a)
	}
}

func (b *builder) resolveDependencies() {
	seen := make(map[[2]int]bool, len(b.dependencies))
	for _, d := range b.dependencies {
		switch {
		case !b.taskIDs[d.PredecessorID]:
			b.note(domain.NoteDanglingTask, "dependency on task %d references unknown predecessor %d; dropped", d.SuccessorID, d.PredecessorID)
			continue
		case !b.taskIDs[d.SuccessorID]:
			b.note(domain.NoteDanglingTask, "dependency from task %d references unknown successor %d; dropped", d.PredecessorID, d.SuccessorID)
			continue
		case d.PredecessorID == d.SuccessorID:
			b.note(domain.NoteSelfLoop, "task %d depends on itself; dropped", d.SuccessorID)
			continue
		}
		key := [2]int{d.PredecessorID, d.SuccessorID}
		if seen[key] {
			b.note(domain.NoteDuplicateDependency, "task %d depends on task %d more than once; duplicate dropped", d.SuccessorID, d.PredecessorID)
			continue
		}
		seen[key] = true
		b.project.Dependencies = append(b.project.Dependencies, d)
	}
}

func hasException(c *domain.Calendar, ex domain.CalendarException) bool {
	for _, e := range c.Exceptions {
		if e.From.Equal(ex.From) && e.To.Equal(ex.To) {
			return true
		}
	}
	return false
}

func copyWeekDay(wd domain.WeekDay) domain.WeekDay {
	wd.Intervals = slices.Clone(wd.Intervals)
	return wd
}

func copyException(ex domain.CalendarException) domain.CalendarException {
	ex.Intervals = slices.Clone(ex.Intervals)
	return ex
}
