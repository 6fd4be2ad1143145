package testutil

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// Structured container file types.
const (
	FileTypeProject  uint16 = 0
	FileTypeTemplate uint16 = 1
)

// Structured day states and units.
const (
	DayInherited  uint8 = 0
	DayNonWorking uint8 = 1
	DayWorking    uint8 = 2

	UnitMinutes uint8 = 0
	UnitHours   uint8 = 1
	UnitDays    uint8 = 2
	UnitWeeks   uint8 = 3
	UnitMonths  uint8 = 4
	UnitUnset   uint8 = 0xFF
)

type StructDay struct {
	State     uint8
	Intervals [][2]uint16
}

type StructException struct {
	From, To  uint32
	Name      string
	Working   bool
	Intervals [][2]uint16
}

type StructCalendar struct {
	ID, Base   uint32
	Name       string
	Days       [7]StructDay
	Exceptions []StructException
}

type StructTask struct {
	ID, Parent, Calendar uint32
	Outline, Percent     uint16
	Start, Finish        uint32
	Duration             uint32
	Unit, Flags          uint8
	Name                 string
}

type StructResource struct {
	ID, Calendar uint32
	// MaxUnits is in hundredths of a percent; 0 is unset.
	MaxUnits uint32
	Name     string
}

type StructAssignment struct {
	Task, Resource, Units, Work uint32
}

type StructLink struct {
	Pred, Succ    uint32
	Type, LagUnit uint8
	Lag           int32
}

// Chunk is one tagged container section.
type Chunk struct {
	Tag     string
	Payload []byte
}

// StructuredFile describes a chunked container file.
type StructuredFile struct {
	Version  uint16
	FileType uint16

	Name                                        string
	Start, Finish, DefaultCalendar              uint32
	MinutesPerDay, MinutesPerWeek, DaysPerMonth uint16

	Calendars   []StructCalendar
	Tasks       []StructTask
	Resources   []StructResource
	Assignments []StructAssignment
	Links       []StructLink

	// Extra chunks are written after the entity chunks.
	Extra     []Chunk
	OmitProps bool
	OmitEnd   bool
}

// StandardStructWeek is Sunday..Saturday with weekends off.
func StandardStructWeek() [7]StructDay {
	work := StructDay{State: DayWorking, Intervals: [][2]uint16{{480, 720}, {780, 1020}}}
	off := StructDay{State: DayNonWorking}
	return [7]StructDay{off, work, work, work, work, work, off}
}

// Chunks returns the sections that Bytes would write, END excluded.
func (f StructuredFile) Chunks() []Chunk {
	le := binary.LittleEndian
	var chunks []Chunk
	if !f.OmitProps {
		p := appendUTF16(nil, f.Name)
		p = le.AppendUint32(p, f.Start)
		p = le.AppendUint32(p, f.Finish)
		p = le.AppendUint32(p, f.DefaultCalendar)
		p = le.AppendUint16(p, f.MinutesPerDay)
		p = le.AppendUint16(p, f.MinutesPerWeek)
		p = le.AppendUint16(p, f.DaysPerMonth)
		chunks = append(chunks, Chunk{"PROP", p})
	}
	if len(f.Calendars) > 0 {
		p := le.AppendUint32(nil, uint32(len(f.Calendars)))
		for _, c := range f.Calendars {
			p = le.AppendUint32(p, c.ID)
			p = le.AppendUint32(p, c.Base)
			p = appendUTF16(p, c.Name)
			for _, d := range c.Days {
				p = append(p, d.State, uint8(len(d.Intervals)))
				p = appendIntervals(p, d.Intervals)
			}
			p = le.AppendUint16(p, uint16(len(c.Exceptions)))
			for _, ex := range c.Exceptions {
				p = le.AppendUint32(p, ex.From)
				p = le.AppendUint32(p, ex.To)
				p = appendUTF16(p, ex.Name)
				working := uint8(0)
				if ex.Working {
					working = 1
				}
				p = append(p, working, uint8(len(ex.Intervals)))
				p = appendIntervals(p, ex.Intervals)
			}
		}
		chunks = append(chunks, Chunk{"CALS", p})
	}
	if len(f.Tasks) > 0 {
		p := le.AppendUint32(nil, uint32(len(f.Tasks)))
		for _, t := range f.Tasks {
			p = le.AppendUint32(p, t.ID)
			p = le.AppendUint32(p, t.Parent)
			p = le.AppendUint32(p, t.Calendar)
			p = le.AppendUint16(p, t.Outline)
			p = le.AppendUint16(p, t.Percent)
			p = le.AppendUint32(p, t.Start)
			p = le.AppendUint32(p, t.Finish)
			p = le.AppendUint32(p, t.Duration)
			p = append(p, t.Unit, t.Flags)
			p = appendUTF16(p, t.Name)
		}
		chunks = append(chunks, Chunk{"TASK", p})
	}
	if len(f.Resources) > 0 {
		p := le.AppendUint32(nil, uint32(len(f.Resources)))
		for _, r := range f.Resources {
			p = le.AppendUint32(p, r.ID)
			p = le.AppendUint32(p, r.Calendar)
			p = le.AppendUint32(p, r.MaxUnits)
			p = appendUTF16(p, r.Name)
		}
		chunks = append(chunks, Chunk{"RSRC", p})
	}
	if len(f.Assignments) > 0 {
		p := le.AppendUint32(nil, uint32(len(f.Assignments)))
		for _, a := range f.Assignments {
			p = le.AppendUint32(p, a.Task)
			p = le.AppendUint32(p, a.Resource)
			p = le.AppendUint32(p, a.Units)
			p = le.AppendUint32(p, a.Work)
		}
		chunks = append(chunks, Chunk{"ASGN", p})
	}
	if len(f.Links) > 0 {
		p := le.AppendUint32(nil, uint32(len(f.Links)))
		for _, l := range f.Links {
			p = le.AppendUint32(p, l.Pred)
			p = le.AppendUint32(p, l.Succ)
			p = append(p, l.Type, l.LagUnit)
			p = le.AppendUint32(p, uint32(l.Lag))
		}
		chunks = append(chunks, Chunk{"LINK", p})
	}
	return append(chunks, f.Extra...)
}

// Bytes renders the container.
func (f StructuredFile) Bytes() []byte {
	return f.Container(f.Chunks())
}

// Container writes the header for f followed by chunks and, unless
// OmitEnd is set, the END chunk.
func (f StructuredFile) Container(chunks []Chunk) []byte {
	le := binary.LittleEndian
	version := f.Version
	if version == 0 {
		version = 1
	}
	out := []byte{'M', 'P', 'J', 'S', '\r', '\n', 0x1A, '\n'}
	out = le.AppendUint16(out, version)
	out = le.AppendUint16(out, f.FileType)
	for _, c := range chunks {
		out = append(out, c.Tag...)
		out = le.AppendUint32(out, uint32(len(c.Payload)))
		out = append(out, c.Payload...)
	}
	if !f.OmitEnd {
		out = append(out, "END "...)
		out = le.AppendUint32(out, 0)
	}
	return out
}

func appendUTF16(out []byte, s string) []byte {
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		b = nil
	}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(b)))
	return append(out, b...)
}

func appendIntervals(out []byte, intervals [][2]uint16) []byte {
	for _, iv := range intervals {
		out = binary.LittleEndian.AppendUint16(out, iv[0])
		out = binary.LittleEndian.AppendUint16(out, iv[1])
	}
	return out
}

// MinimalStructured declares two tasks, one resource, one assignment, one
// link and the default calendar.
func MinimalStructured() StructuredFile {
	return StructuredFile{
		FileType:        FileTypeProject,
		Name:            "Minimal Structured",
		Start:           EpochMinutes(Date(2024, 3, 4, 8, 0)),
		Finish:          EpochMinutes(Date(2024, 3, 8, 17, 0)),
		DefaultCalendar: 1,
		MinutesPerDay:   480,
		MinutesPerWeek:  2400,
		DaysPerMonth:    20,
		Calendars:       []StructCalendar{{ID: 1, Name: "Standard", Days: StandardStructWeek()}},
		Tasks: []StructTask{
			{ID: 1, Outline: 1, Percent: 50, Start: EpochMinutes(Date(2024, 3, 4, 8, 0)), Duration: 2, Unit: UnitDays, Name: "Design"},
			{ID: 2, Outline: 1, Duration: 3, Unit: UnitDays, Name: "Build"},
		},
		Resources:   []StructResource{{ID: 1, MaxUnits: 10000, Name: "Engineer"}},
		Assignments: []StructAssignment{{Task: 1, Resource: 1, Units: 10000, Work: 960}},
		Links:       []StructLink{{Pred: 1, Succ: 2, Type: 1, LagUnit: UnitHours, Lag: 4}},
	}
}

// MinimalTemplate is MinimalStructured as a template: task dates are minute
// offsets from the anchor and the project start is left unset.
func MinimalTemplate() StructuredFile {
	f := MinimalStructured()
	f.FileType = FileTypeTemplate
	f.Name = "Minimal Template"
	f.Start, f.Finish = 0, 0
	f.Tasks = []StructTask{
		{ID: 1, Outline: 1, Percent: 50, Start: 0, Finish: 960, Duration: 2, Unit: UnitDays, Name: "Design"},
		{ID: 2, Outline: 1, Start: 0xFFFFFFFF, Finish: 0xFFFFFFFF, Duration: 3, Unit: UnitDays, Name: "Build"},
	}
	return f
}
