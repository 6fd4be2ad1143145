package importer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

// Legacy layout sizes.
const (
	legacyVersion        = 4
	legacyHeaderSize     = 64
	legacyCalendarSize   = 64
	legacyTaskSize       = 72
	legacyResourceSize   = 48
	legacyAssignmentSize = 16
	legacyLinkSize       = 12
)

var legacyTrailer = []byte{0x00, 'E', 'N', 'D'}

type legacyHeader struct {
	tasks, resources, assignments, calendars, links int
	defaultCalendar                                  uint16
	start, finish                                    uint32
	name                                             string
}

// LegacyDecoder reads the fixed-width record layout.
type LegacyDecoder struct{}

func (LegacyDecoder) Format() format.Format { return format.LegacyBinary }

func (LegacyDecoder) Decode(r io.Reader) (*Result, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	h, err := readLegacyHeader(data)
	if err != nil {
		return nil, err
	}

	want := legacyHeaderSize +
		h.calendars*legacyCalendarSize +
		h.tasks*legacyTaskSize +
		h.resources*legacyResourceSize +
		h.assignments*legacyAssignmentSize +
		h.links*legacyLinkSize
	if len(data) < want+len(legacyTrailer) {
		return nil, fmt.Errorf("%w: header declares %d bytes of tables, file has %d",
			domain.ErrCorruptStructure, want-legacyHeaderSize, len(data)-legacyHeaderSize)
	}
	if !bytes.Equal(data[want:want+len(legacyTrailer)], legacyTrailer) {
		return nil, fmt.Errorf("%w: missing end-of-tables trailer at offset %d", domain.ErrCorruptStructure, want)
	}
	if extra := len(data) - want - len(legacyTrailer); extra > 0 {
		return nil, fmt.Errorf("%w: %d bytes after end-of-tables trailer", domain.ErrCorruptStructure, extra)
	}

	b := newBuilder(domain.Properties{
		Name:       h.name,
		StartDate:  epochMinutes(h.start),
		FinishDate: epochMinutes(h.finish),
	})
	if h.defaultCalendar != 0 {
		b.project.Properties.DefaultCalendarID = domain.Ptr(int(h.defaultCalendar))
	}

	c := newCursor(data[legacyHeaderSize:want], "legacy tables")
	for i := 0; i < h.calendars; i++ {
		cal, err := readLegacyCalendar(c)
		if err != nil {
			return nil, fmt.Errorf("calendar record %d: %w", i, err)
		}
		if err := b.addCalendar(cal); err != nil {
			return nil, err
		}
	}
	for i := 0; i < h.tasks; i++ {
		t, err := readLegacyTask(c)
		if err != nil {
			return nil, fmt.Errorf("task record %d: %w", i, err)
		}
		if err := b.addTask(t); err != nil {
			return nil, err
		}
	}
	for i := 0; i < h.resources; i++ {
		res, err := readLegacyResource(c)
		if err != nil {
			return nil, fmt.Errorf("resource record %d: %w", i, err)
		}
		if err := b.addResource(res); err != nil {
			return nil, err
		}
	}
	for i := 0; i < h.assignments; i++ {
		b.addAssignment(readLegacyAssignment(c))
	}
	for i := 0; i < h.links; i++ {
		d, err := readLegacyLink(c)
		if err != nil {
			return nil, fmt.Errorf("link record %d: %w", i, err)
		}
		b.addDependency(d)
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	return b.build()
}

func readLegacyHeader(data []byte) (legacyHeader, error) {
	if len(data) < legacyHeaderSize {
		return legacyHeader{}, fmt.Errorf("%w: legacy header needs %d bytes, file has %d",
			domain.ErrCorruptStructure, legacyHeaderSize, len(data))
	}
	if !bytes.HasPrefix(data, format.LegacyMagic) {
		return legacyHeader{}, fmt.Errorf("%w: bad legacy signature", domain.ErrCorruptStructure)
	}
	c := newCursor(data[:legacyHeaderSize], "legacy header")
	c.skip(len(format.LegacyMagic) + 1)
	if v := c.u16(); v != legacyVersion {
		return legacyHeader{}, fmt.Errorf("%w: unsupported legacy version %d", domain.ErrCorruptStructure, v)
	}
	h := legacyHeader{
		tasks:       int(c.u16()),
		resources:   int(c.u16()),
		assignments: int(c.u16()),
		calendars:   int(c.u16()),
		links:       int(c.u16()),
	}
	h.defaultCalendar = c.u16()
	h.start = c.u32()
	h.finish = c.u32()
	h.name = c.legacyString(legacyHeaderSize - 28)
	return h, c.done()
}

func readLegacyCalendar(c *cursor) (*domain.Calendar, error) {
	id := c.u16()
	base := c.u16()
	cal := &domain.Calendar{
		ID:     int(id),
		BaseID: optionalRef(uint32(base)),
		Name:   c.legacyString(32),
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		from, to := c.u16(), c.u16()
		switch {
		case from == unsetU16:
			continue
		case from == to:
			cal.WeekDays = append(cal.WeekDays, domain.WeekDay{Day: d})
		case from > to || int(to) > domain.MinutesPerDayClock:
			return nil, fmt.Errorf("%w: calendar %d %s interval %d-%d", domain.ErrCorruptStructure, id, d, from, to)
		default:
			cal.WeekDays = append(cal.WeekDays, domain.WeekDay{
				Day:       d,
				Working:   true,
				Intervals: []domain.WorkingTime{{FromMin: int(from), ToMin: int(to)}},
			})
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: calendar id 0", domain.ErrCorruptStructure)
	}
	return cal, nil
}

func readLegacyTask(c *cursor) (*domain.Task, error) {
	id := c.u16()
	parent := c.u16()
	calendar := c.u16()
	outline := c.u8()
	percent := c.u8()
	start := c.u32()
	finish := c.u32()
	duration := c.u32()
	name := c.legacyString(52)
	if c.err != nil {
		return nil, c.err
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: task id 0", domain.ErrCorruptStructure)
	}
	if percent > 100 {
		return nil, fmt.Errorf("%w: task %d percent complete %d", domain.ErrCorruptStructure, id, percent)
	}

	t := &domain.Task{
		ID:              int(id),
		Name:            name,
		Start:           epochMinutes(start),
		Finish:          epochMinutes(finish),
		PercentComplete: domain.Ptr(int(percent)),
		OutlineLevel:    int(outline),
		ParentID:        optionalRef(uint32(parent)),
		CalendarID:      optionalRef(uint32(calendar)),
	}
	if duration != unsetU32 {
		t.DurationMin = domain.Ptr(tenthsToMinutes(int64(duration)))
		t.Milestone = *t.DurationMin == 0
	}
	return t, nil
}

func readLegacyResource(c *cursor) (*domain.Resource, error) {
	id := c.u16()
	calendar := c.u16()
	maxUnits := c.u16()
	name := c.legacyString(42)
	if c.err != nil {
		return nil, c.err
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: resource id 0", domain.ErrCorruptStructure)
	}
	res := &domain.Resource{
		ID:         int(id),
		Name:       name,
		CalendarID: optionalRef(uint32(calendar)),
	}
	if maxUnits != 0 {
		res.MaxUnits = domain.Ptr(float64(maxUnits) / 100)
	}
	return res, nil
}

func readLegacyAssignment(c *cursor) *domain.Assignment {
	a := &domain.Assignment{
		TaskID:     int(c.u16()),
		ResourceID: int(c.u16()),
	}
	a.Units = domain.Ptr(float64(c.u16()) / 100)
	c.skip(2)
	if work := c.u32(); work != unsetU32 {
		a.WorkMin = domain.Ptr(tenthsToMinutes(int64(work)))
	}
	c.skip(4)
	return a
}

func readLegacyLink(c *cursor) (*domain.Dependency, error) {
	pred := c.u16()
	succ := c.u16()
	code := c.u8()
	c.skip(3)
	lag := c.i32()
	if c.err != nil {
		return nil, c.err
	}
	lt, err := linkTypeFromCode(code)
	if err != nil {
		return nil, err
	}
	return &domain.Dependency{
		PredecessorID: int(pred),
		SuccessorID:   int(succ),
		Type:          lt,
		LagMin:        tenthsToMinutes(int64(lag)),
	}, nil
}
