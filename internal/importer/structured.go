package importer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

const (
	structuredVersion    = 1
	structuredHeaderSize = 12
)

// Chunk tags of the structured container.
const (
	tagProperties  = "PROP"
	tagCalendars   = "CALS"
	tagTasks       = "TASK"
	tagResources   = "RSRC"
	tagAssignments = "ASGN"
	tagLinks       = "LINK"
	tagEnd         = "END "
)

var knownTags = map[string]bool{
	tagProperties: true, tagCalendars: true, tagTasks: true,
	tagResources: true, tagAssignments: true, tagLinks: true,
}

// Duration unit codes.
const (
	unitMinutes = 0
	unitHours   = 1
	unitDays    = 2
	unitWeeks   = 3
	unitMonths  = 4
	unitUnset   = 0xFF
)

// Calendar day states.
const (
	dayInherited  = 0
	dayNonWorking = 1
	dayWorking    = 2
)

// StructuredDecoder reads the tagged chunk container with file type project.
type StructuredDecoder struct{}

func (StructuredDecoder) Format() format.Format { return format.StructuredBinary }

func (StructuredDecoder) Decode(r io.Reader) (*Result, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	chunks, err := readContainer(data, format.FileTypeProject)
	if err != nil {
		return nil, err
	}
	b, err := newContainerBuilder(chunks)
	if err != nil {
		return nil, err
	}
	return decodeContainer(b, chunks, absoluteTaskDates)
}

// taskDateFunc interprets a task's raw start/finish field.
type taskDateFunc func(v uint32) *time.Time

func absoluteTaskDates(v uint32) *time.Time { return epochMinutes(v) }

// readContainer validates the header and splits the body into chunks.
func readContainer(data []byte, fileType uint16) (map[string][]byte, error) {
	if len(data) < structuredHeaderSize {
		return nil, fmt.Errorf("%w: structured header needs %d bytes, file has %d",
			domain.ErrCorruptStructure, structuredHeaderSize, len(data))
	}
	if !bytes.HasPrefix(data, format.StructuredMagic) {
		return nil, fmt.Errorf("%w: bad structured signature", domain.ErrCorruptStructure)
	}
	c := newCursor(data, "structured container")
	c.skip(len(format.StructuredMagic))
	if v := c.u16(); v != structuredVersion {
		return nil, fmt.Errorf("%w: unsupported structured version %d", domain.ErrCorruptStructure, v)
	}
	if ft := c.u16(); ft != fileType {
		return nil, fmt.Errorf("%w: file type %d, expected %d", domain.ErrCorruptStructure, ft, fileType)
	}

	chunks := make(map[string][]byte)
	for {
		if c.remaining() == 0 {
			return nil, fmt.Errorf("%w: container ends without %q chunk", domain.ErrCorruptStructure, tagEnd)
		}
		at := c.off
		tag := string(c.take(4))
		n := c.u32()
		if c.err != nil {
			return nil, c.err
		}
		if uint64(n) > uint64(c.remaining()) {
			return nil, fmt.Errorf("%w: chunk %q at offset %d declares %d bytes, %d remain",
				domain.ErrCorruptStructure, tag, at, n, c.remaining())
		}
		payload := c.take(int(n))
		if tag == tagEnd {
			break
		}
		if !knownTags[tag] {
			continue
		}
		if _, dup := chunks[tag]; dup {
			return nil, fmt.Errorf("%w: chunk %q repeated at offset %d", domain.ErrCorruptStructure, tag, at)
		}
		chunks[tag] = payload
	}
	if extra := c.remaining(); extra > 0 {
		return nil, fmt.Errorf("%w: %d bytes after %q chunk", domain.ErrCorruptStructure, extra, tagEnd)
	}
	if _, ok := chunks[tagProperties]; !ok {
		return nil, fmt.Errorf("%w: missing %q chunk", domain.ErrCorruptStructure, tagProperties)
	}
	return chunks, nil
}

func newContainerBuilder(chunks map[string][]byte) (*builder, error) {
	c := newCursor(chunks[tagProperties], tagProperties)
	props := domain.Properties{
		Name:              c.utf16String(),
		StartDate:         epochMinutes(c.u32()),
		FinishDate:        epochMinutes(c.u32()),
		DefaultCalendarID: optionalRef(c.u32()),
		MinutesPerDay:     int(c.u16()),
		MinutesPerWeek:    int(c.u16()),
		DaysPerMonth:      int(c.u16()),
	}
	if err := c.done(); err != nil {
		return nil, err
	}
	return newBuilder(props), nil
}

// decodeContainer reads the entity chunks in dependency order.
func decodeContainer(b *builder, chunks map[string][]byte, taskDate taskDateFunc) (*Result, error) {
	if err := readCalendars(b, chunks[tagCalendars]); err != nil {
		return nil, err
	}
	if err := readTasks(b, chunks[tagTasks], taskDate); err != nil {
		return nil, err
	}
	if err := readResources(b, chunks[tagResources]); err != nil {
		return nil, err
	}
	if err := readAssignments(b, chunks[tagAssignments]); err != nil {
		return nil, err
	}
	if err := readLinks(b, chunks[tagLinks]); err != nil {
		return nil, err
	}
	return b.build()
}

// toMinutes converts a value in unit to minutes using the project factors.
func toMinutes(v int64, unit uint8, props domain.Properties) (int, error) {
	switch unit {
	case unitMinutes:
		return int(v), nil
	case unitHours:
		return int(v * 60), nil
	case unitDays:
		return int(v * int64(props.MinutesPerDay)), nil
	case unitWeeks:
		return int(v * int64(props.MinutesPerWeek)), nil
	case unitMonths:
		return int(v * int64(props.DaysPerMonth) * int64(props.MinutesPerDay)), nil
	default:
		return 0, fmt.Errorf("%w: unknown duration unit %d", domain.ErrCorruptStructure, unit)
	}
}

func readRequiredID(c *cursor, kind string) (int, error) {
	id := c.u32()
	if c.err != nil {
		return 0, c.err
	}
	if id == 0 {
		return 0, fmt.Errorf("%w: %s id 0", domain.ErrCorruptStructure, kind)
	}
	return int(id), nil
}

func readCalendars(b *builder, payload []byte) error {
	if payload == nil {
		return nil
	}
	c := newCursor(payload, tagCalendars)
	count := int(c.u32())
	for i := 0; i < count && c.err == nil; i++ {
		id, err := readRequiredID(c, "calendar")
		if err != nil {
			return err
		}
		cal := &domain.Calendar{ID: id, BaseID: optionalRef(c.u32()), Name: c.utf16String()}
		for d := time.Sunday; d <= time.Saturday; d++ {
			state := c.u8()
			intervals := readIntervals(c, int(c.u8()))
			switch state {
			case dayInherited:
			case dayNonWorking:
				cal.WeekDays = append(cal.WeekDays, domain.WeekDay{Day: d})
			case dayWorking:
				cal.WeekDays = append(cal.WeekDays, domain.WeekDay{Day: d, Working: true, Intervals: intervals})
			default:
				return fmt.Errorf("%w: calendar %d %s has unknown day state %d", domain.ErrCorruptStructure, id, d, state)
			}
		}
		exceptions := int(c.u16())
		for j := 0; j < exceptions && c.err == nil; j++ {
			ex := domain.CalendarException{From: epochDate(c.u32()), To: epochDate(c.u32())}
			ex.Name = c.utf16String()
			ex.Working = c.u8() != 0
			ex.Intervals = readIntervals(c, int(c.u8()))
			cal.Exceptions = append(cal.Exceptions, ex)
		}
		if c.err != nil {
			return c.err
		}
		if err := b.addCalendar(cal); err != nil {
			return err
		}
	}
	return c.done()
}

func readIntervals(c *cursor, n int) []domain.WorkingTime {
	var out []domain.WorkingTime
	for i := 0; i < n && c.err == nil; i++ {
		out = append(out, domain.WorkingTime{FromMin: int(c.u16()), ToMin: int(c.u16())})
	}
	return out
}

func readTasks(b *builder, payload []byte, taskDate taskDateFunc) error {
	if payload == nil {
		return nil
	}
	props := b.project.Properties
	c := newCursor(payload, tagTasks)
	count := int(c.u32())
	for i := 0; i < count && c.err == nil; i++ {
		id, err := readRequiredID(c, "task")
		if err != nil {
			return err
		}
		t := &domain.Task{
			ID:           id,
			ParentID:     optionalRef(c.u32()),
			CalendarID:   optionalRef(c.u32()),
			OutlineLevel: int(c.u16()),
		}
		percent := int(c.u16())
		t.PercentComplete = &percent
		t.Start = taskDate(c.u32())
		t.Finish = taskDate(c.u32())
		value := c.u32()
		unit := c.u8()
		flags := c.u8()
		t.Name = c.utf16String()
		if c.err != nil {
			return c.err
		}
		if unit != unitUnset {
			minutes, err := toMinutes(int64(value), unit, props)
			if err != nil {
				return fmt.Errorf("task %d duration: %w", id, err)
			}
			t.DurationMin = &minutes
		}
		t.Milestone = flags&1 != 0
		if err := b.addTask(t); err != nil {
			return err
		}
	}
	return c.done()
}

func readResources(b *builder, payload []byte) error {
	if payload == nil {
		return nil
	}
	c := newCursor(payload, tagResources)
	count := int(c.u32())
	for i := 0; i < count && c.err == nil; i++ {
		id, err := readRequiredID(c, "resource")
		if err != nil {
			return err
		}
		res := &domain.Resource{ID: id, CalendarID: optionalRef(c.u32())}
		if units := c.u32(); units != 0 {
			res.MaxUnits = domain.Ptr(float64(units) / 10000)
		}
		res.Name = c.utf16String()
		if c.err != nil {
			return c.err
		}
		if err := b.addResource(res); err != nil {
			return err
		}
	}
	return c.done()
}

func readAssignments(b *builder, payload []byte) error {
	if payload == nil {
		return nil
	}
	c := newCursor(payload, tagAssignments)
	count := int(c.u32())
	for i := 0; i < count && c.err == nil; i++ {
		a := &domain.Assignment{TaskID: int(c.u32()), ResourceID: int(c.u32())}
		a.Units = domain.Ptr(float64(c.u32()) / 10000)
		if work := c.u32(); work != unsetU32 {
			a.WorkMin = domain.Ptr(int(work))
		}
		if c.err == nil {
			b.addAssignment(a)
		}
	}
	return c.done()
}

func readLinks(b *builder, payload []byte) error {
	if payload == nil {
		return nil
	}
	props := b.project.Properties
	c := newCursor(payload, tagLinks)
	count := int(c.u32())
	for i := 0; i < count && c.err == nil; i++ {
		pred := int(c.u32())
		succ := int(c.u32())
		code := c.u8()
		unit := c.u8()
		lag := c.i32()
		if c.err != nil {
			return c.err
		}
		lt, err := linkTypeFromCode(code)
		if err != nil {
			return fmt.Errorf("link %d->%d: %w", pred, succ, err)
		}
		lagMin, err := toMinutes(int64(lag), unit, props)
		if err != nil {
			return fmt.Errorf("link %d->%d lag: %w", pred, succ, err)
		}
		b.addDependency(&domain.Dependency{PredecessorID: pred, SuccessorID: succ, Type: lt, LagMin: lagMin})
	}
	return c.done()
}
