package mspdi

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Encoder renders a domain.Project as an MSPDI document. Output is
// deterministic: the same model always yields byte-identical output.
type Encoder struct {
	indent string
	guids  bool
}

type EncoderOption func(*Encoder)

// WithIndent sets the per-level indentation; empty disables pretty printing.
func WithIndent(indent string) EncoderOption {
	return func(e *Encoder) { e.indent = indent }
}

// WithoutGUIDs omits the derived GUID elements.
func WithoutGUIDs() EncoderOption {
	return func(e *Encoder) { e.guids = false }
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{indent: "  ", guids: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode renders p with the default encoder.
func Encode(p *domain.Project) ([]byte, error) {
	return NewEncoder().Encode(p)
}

// Encode renders p. It fails only with an error wrapping
// domain.ErrUnrepresentable; nothing is returned on failure.
func (e *Encoder) Encode(p *domain.Project) ([]byte, error) {
	doc, err := e.Document(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", e.indent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Document maps p onto the schema types without serializing them.
func (e *Encoder) Document(p *domain.Project) (*Document, error) {
	props := p.Properties
	doc := &Document{
		SaveVersion:       intPtr(saveVersion),
		Name:              props.Name,
		ScheduleFromStart: intPtr(1),
		CalendarUID:       copyInt(props.DefaultCalendarID),
	}

	var err error
	if props.StartDate != nil {
		if doc.StartDate, err = FormatDate(*props.StartDate); err != nil {
			return nil, fmt.Errorf("project start: %w", err)
		}
	}
	if props.FinishDate != nil {
		if doc.FinishDate, err = FormatDate(*props.FinishDate); err != nil {
			return nil, fmt.Errorf("project finish: %w", err)
		}
	}
	if props.MinutesPerDay > 0 {
		doc.MinutesPerDay = intPtr(props.MinutesPerDay)
	}
	if props.MinutesPerWeek > 0 {
		doc.MinutesPerWeek = intPtr(props.MinutesPerWeek)
	}
	if props.DaysPerMonth > 0 {
		doc.DaysPerMonth = intPtr(props.DaysPerMonth)
	}

	guids := newGUIDSource(props.Name)
	if !e.guids {
		guids = guidSource{}
	}
	gen := &docBuilder{project: p, guids: guids, withGUIDs: e.guids}

	if doc.Calendars.Calendars, err = gen.calendars(); err != nil {
		return nil, err
	}
	if doc.Tasks.Tasks, err = gen.tasks(); err != nil {
		return nil, err
	}
	if doc.Resources.Resources, err = gen.resources(); err != nil {
		return nil, err
	}
	if doc.Assignments.Assignments, err = gen.assignments(); err != nil {
		return nil, err
	}
	return doc, nil
}

type docBuilder struct {
	project   *domain.Project
	guids     guidSource
	withGUIDs bool
}

func (b *docBuilder) guid(kind string, uid int) string {
	if !b.withGUIDs {
		return ""
	}
	return b.guids.For(kind, uid)
}

func (b *docBuilder) calendars() ([]Calendar, error) {
	cals := slices.Clone(b.project.Calendars)
	slices.SortStableFunc(cals, func(a, c *domain.Calendar) int { return a.ID - c.ID })

	out := make([]Calendar, 0, len(cals))
	for _, c := range cals {
		xc := Calendar{
			UID:             intPtr(c.ID),
			GUID:            b.guid("calendar", c.ID),
			Name:            c.Name,
			IsBaseCalendar:  intPtr(boolToInt(c.IsBase())),
			BaseCalendarUID: intPtr(NoCalendarUID),
		}
		if c.BaseID != nil {
			xc.BaseCalendarUID = intPtr(*c.BaseID)
		}

		var days []WeekDay
		for _, wd := range c.WeekDays {
			days = append(days, WeekDay{
				DayType:      int(wd.Day) + 1,
				DayWorking:   boolToInt(wd.Working),
				WorkingTimes: workingTimes(wd.Intervals),
			})
		}
		for _, ex := range c.Exceptions {
			from, err := FormatDate(startOfDay(ex.From))
			if err != nil {
				return nil, fmt.Errorf("calendar %d exception: %w", c.ID, err)
			}
			to, err := FormatDate(startOfDay(ex.To).Add(23*time.Hour + 59*time.Minute))
			if err != nil {
				return nil, fmt.Errorf("calendar %d exception: %w", c.ID, err)
			}
			days = append(days, WeekDay{
				DayType:      0,
				DayWorking:   boolToInt(ex.Working),
				TimePeriod:   &TimePeriod{FromDate: from, ToDate: to},
				WorkingTimes: workingTimes(ex.Intervals),
			})
		}
		if len(days) > 0 {
			xc.WeekDays = &WeekDayList{WeekDays: days}
		}
		out = append(out, xc)
	}
	return out, nil
}

func (b *docBuilder) tasks() ([]Task, error) {
	p := b.project
	hasChildren := make(map[int]bool)
	for _, t := range p.Tasks {
		if t.ParentID != nil {
			hasChildren[*t.ParentID] = true
		}
	}
	preds := make(map[int][]*domain.Dependency)
	for _, d := range p.Dependencies {
		preds[d.SuccessorID] = append(preds[d.SuccessorID], d)
	}

	ordered := p.OutlineOrder()
	levels := outlineLevels(ordered)
	outline := outlineNumbers(levels)
	out := make([]Task, 0, len(ordered))
	row := 1
	for i, t := range ordered {
		xt := Task{
			UID:             intPtr(t.ID),
			GUID:            b.guid("task", t.ID),
			Name:            t.Name,
			OutlineNumber:   outline[i],
			OutlineLevel:    intPtr(levels[i]),
			PercentComplete: copyInt(t.PercentComplete),
			CalendarUID:     copyInt(t.CalendarID),
		}
		if levels[i] == 0 && t.ID == 0 {
			xt.ID = intPtr(0)
		} else {
			xt.ID = intPtr(row)
			row++
		}

		var err error
		if t.Start != nil {
			if xt.Start, err = FormatDate(*t.Start); err != nil {
				return nil, fmt.Errorf("task %d start: %w", t.ID, err)
			}
		}
		if t.Finish != nil {
			if xt.Finish, err = FormatDate(*t.Finish); err != nil {
				return nil, fmt.Errorf("task %d finish: %w", t.ID, err)
			}
		}
		if t.DurationMin != nil {
			if xt.Duration, err = FormatDuration(*t.DurationMin); err != nil {
				return nil, fmt.Errorf("task %d duration: %w", t.ID, err)
			}
		}
		if t.PercentComplete != nil && (*t.PercentComplete < 0 || *t.PercentComplete > 100) {
			return nil, fmt.Errorf("task %d: %w: percent complete %d", t.ID, domain.ErrUnrepresentable, *t.PercentComplete)
		}
		if t.Milestone {
			xt.Milestone = intPtr(1)
		}
		if hasChildren[t.ID] {
			xt.Summary = intPtr(1)
		}

		for _, d := range preds[t.ID] {
			link, err := b.link(d)
			if err != nil {
				return nil, fmt.Errorf("task %d predecessor %d: %w", t.ID, d.PredecessorID, err)
			}
			xt.PredecessorLinks = append(xt.PredecessorLinks, link)
		}
		out = append(out, xt)
	}
	return out, nil
}

func (b *docBuilder) link(d *domain.Dependency) (PredecessorLink, error) {
	code, ok := LinkTypeCode(d.Type)
	if !ok {
		return PredecessorLink{}, fmt.Errorf("%w: link type %q", domain.ErrUnrepresentable, d.Type)
	}
	tenths := int64(d.LagMin) * 10
	if tenths > math.MaxInt32 || tenths < math.MinInt32 {
		return PredecessorLink{}, fmt.Errorf("%w: lag %d minutes", domain.ErrUnrepresentable, d.LagMin)
	}
	return PredecessorLink{
		PredecessorUID: intPtr(d.PredecessorID),
		Type:           intPtr(code),
		LinkLag:        intPtr(int(tenths)),
		LagFormat:      intPtr(lagFormat(d.LagMin, b.project.Properties.MinutesPerDay)),
	}, nil
}

func (b *docBuilder) resources() ([]Resource, error) {
	res := slices.Clone(b.project.Resources)
	slices.SortStableFunc(res, func(a, c *domain.Resource) int { return a.ID - c.ID })

	out := make([]Resource, 0, len(res))
	for i, r := range res {
		xr := Resource{
			UID:         intPtr(r.ID),
			GUID:        b.guid("resource", r.ID),
			ID:          intPtr(i + 1),
			Name:        r.Name,
			CalendarUID: copyInt(r.CalendarID),
		}
		if r.MaxUnits != nil {
			units, err := FormatUnits(*r.MaxUnits)
			if err != nil {
				return nil, fmt.Errorf("resource %d max units: %w", r.ID, err)
			}
			xr.MaxUnits = units
		}
		out = append(out, xr)
	}
	return out, nil
}

func (b *docBuilder) assignments() ([]Assignment, error) {
	as := slices.Clone(b.project.Assignments)
	slices.SortStableFunc(as, func(a, c *domain.Assignment) int {
		if a.TaskID != c.TaskID {
			return a.TaskID - c.TaskID
		}
		return a.ResourceID - c.ResourceID
	})

	out := make([]Assignment, 0, len(as))
	for i, a := range as {
		xa := Assignment{
			UID:         intPtr(i + 1),
			TaskUID:     intPtr(a.TaskID),
			ResourceUID: intPtr(a.ResourceID),
		}
		if a.Units != nil {
			units, err := FormatUnits(*a.Units)
			if err != nil {
				return nil, fmt.Errorf("assignment %d/%d units: %w", a.TaskID, a.ResourceID, err)
			}
			xa.Units = units
		}
		if a.WorkMin != nil {
			work, err := FormatDuration(*a.WorkMin)
			if err != nil {
				return nil, fmt.Errorf("assignment %d/%d work: %w", a.TaskID, a.ResourceID, err)
			}
			xa.Work = work
		}
		out = append(out, xa)
	}
	return out, nil
}

// outlineLevels gives each task of an outline-ordered list the depth of
// its parent chain. A parentless task keeps level 0 when it declares it;
// a parent at level 0 does not nest its children.
func outlineLevels(ordered []*domain.Task) []int {
	levels := make([]int, len(ordered))
	byID := make(map[int]int, len(ordered))
	for i, t := range ordered {
		level := 1
		switch {
		case t.ParentID == nil && t.OutlineLevel == 0:
			level = 0
		case t.ParentID != nil && byID[*t.ParentID] > 0:
			level = byID[*t.ParentID] + 1
		}
		levels[i] = level
		byID[t.ID] = level
	}
	return levels
}

// outlineNumbers derives dotted outline numbers ("1", "1.2", ...) from
// consecutive outline levels. Level-0 rows are numbered "0".
func outlineNumbers(levels []int) []string {
	out := make([]string, len(levels))
	var counters []int
	for i, level := range levels {
		if level <= 0 {
			out[i] = "0"
			continue
		}
		for len(counters) < level {
			counters = append(counters, 0)
		}
		counters = counters[:level]
		counters[level-1]++
		parts := make([]string, len(counters))
		for j, c := range counters {
			parts[j] = strconv.Itoa(c)
		}
		out[i] = strings.Join(parts, ".")
	}
	return out
}

func workingTimes(intervals []domain.WorkingTime) *WorkingTimeList {
	if len(intervals) == 0 {
		return nil
	}
	list := &WorkingTimeList{}
	for _, wt := range intervals {
		list.WorkingTimes = append(list.WorkingTimes, WorkingTime{
			FromTime: FormatTimeOfDay(wt.FromMin),
			ToTime:   FormatTimeOfDay(wt.ToMin),
		})
	}
	return list
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
