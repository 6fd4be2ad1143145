package testutil

import (
	"encoding/binary"
	"time"

	"golang.org/x/text/encoding/charmap"
)

var binaryEpoch = time.Date(1984, 1, 1, 0, 0, 0, 0, time.UTC)

// EpochMinutes converts t to a binary date field.
func EpochMinutes(t time.Time) uint32 {
	return uint32(t.Sub(binaryEpoch) / time.Minute)
}

// Legacy day encodings: {from, to}.
var (
	LegacyInherited  = [2]uint16{0xFFFF, 0}
	LegacyNonWorking = [2]uint16{0, 0}
	LegacyWorkday    = [2]uint16{480, 1020}
)

// LegacyStandardWeek is Sunday..Saturday with weekends off.
func LegacyStandardWeek() [7][2]uint16 {
	return [7][2]uint16{LegacyNonWorking, LegacyWorkday, LegacyWorkday, LegacyWorkday, LegacyWorkday, LegacyWorkday, LegacyNonWorking}
}

type LegacyCalendar struct {
	ID, Base uint16
	Name     string
	Days     [7][2]uint16
}

type LegacyTask struct {
	ID, Parent, Calendar uint16
	Outline, Percent     uint8
	Start, Finish        uint32
	// Duration is in tenths of minutes; 0xFFFFFFFF is unset.
	Duration uint32
	Name     string
}

type LegacyResource struct {
	ID, Calendar, MaxUnits uint16
	Name                   string
}

type LegacyAssignment struct {
	Task, Resource, Units uint16
	Work                  uint32
}

type LegacyLink struct {
	Pred, Succ uint16
	Type       uint8
	Lag        int32
}

// LegacyFile describes a fixed-width record file.
type LegacyFile struct {
	Version         uint16
	Name            string
	Start, Finish   uint32
	DefaultCalendar uint16
	Calendars       []LegacyCalendar
	Tasks           []LegacyTask
	Resources       []LegacyResource
	Assignments     []LegacyAssignment
	Links           []LegacyLink
	OmitTrailer     bool
}

// Bytes renders the file.
func (f LegacyFile) Bytes() []byte {
	le := binary.LittleEndian
	version := f.Version
	if version == 0 {
		version = 4
	}
	out := []byte{'M', 'P', 'J', 'L', 0x1A, 0x00}
	out = le.AppendUint16(out, version)
	out = le.AppendUint16(out, uint16(len(f.Tasks)))
	out = le.AppendUint16(out, uint16(len(f.Resources)))
	out = le.AppendUint16(out, uint16(len(f.Assignments)))
	out = le.AppendUint16(out, uint16(len(f.Calendars)))
	out = le.AppendUint16(out, uint16(len(f.Links)))
	out = le.AppendUint16(out, f.DefaultCalendar)
	out = le.AppendUint32(out, f.Start)
	out = le.AppendUint32(out, f.Finish)
	out = appendFixed(out, f.Name, 36)

	for _, c := range f.Calendars {
		out = le.AppendUint16(out, c.ID)
		out = le.AppendUint16(out, c.Base)
		out = appendFixed(out, c.Name, 32)
		for _, d := range c.Days {
			out = le.AppendUint16(out, d[0])
			out = le.AppendUint16(out, d[1])
		}
	}
	for _, t := range f.Tasks {
		out = le.AppendUint16(out, t.ID)
		out = le.AppendUint16(out, t.Parent)
		out = le.AppendUint16(out, t.Calendar)
		out = append(out, t.Outline, t.Percent)
		out = le.AppendUint32(out, t.Start)
		out = le.AppendUint32(out, t.Finish)
		out = le.AppendUint32(out, t.Duration)
		out = appendFixed(out, t.Name, 52)
	}
	for _, r := range f.Resources {
		out = le.AppendUint16(out, r.ID)
		out = le.AppendUint16(out, r.Calendar)
		out = le.AppendUint16(out, r.MaxUnits)
		out = appendFixed(out, r.Name, 42)
	}
	for _, a := range f.Assignments {
		out = le.AppendUint16(out, a.Task)
		out = le.AppendUint16(out, a.Resource)
		out = le.AppendUint16(out, a.Units)
		out = le.AppendUint16(out, 0)
		out = le.AppendUint32(out, a.Work)
		out = le.AppendUint32(out, 0)
	}
	for _, l := range f.Links {
		out = le.AppendUint16(out, l.Pred)
		out = le.AppendUint16(out, l.Succ)
		out = append(out, l.Type, 0, 0, 0)
		out = le.AppendUint32(out, uint32(l.Lag))
	}
	if !f.OmitTrailer {
		out = append(out, 0x00, 'E', 'N', 'D')
	}
	return out
}

// appendFixed writes s as Windows-1252, NUL padded or cut to width.
func appendFixed(out []byte, s string, width int) []byte {
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		b = []byte(s)
	}
	field := make([]byte, width)
	copy(field, b)
	return append(out, field...)
}

// MinimalLegacy declares two tasks, one resource, one assignment, one link
// and the default calendar.
func MinimalLegacy() LegacyFile {
	start := EpochMinutes(Date(2024, 3, 4, 8, 0))
	return LegacyFile{
		Name:            "Minimal Legacy",
		Start:           start,
		Finish:          EpochMinutes(Date(2024, 3, 8, 17, 0)),
		DefaultCalendar: 1,
		Calendars:       []LegacyCalendar{{ID: 1, Name: "Standard", Days: LegacyStandardWeek()}},
		Tasks: []LegacyTask{
			{ID: 1, Outline: 1, Percent: 25, Start: start, Duration: 9600, Name: "Design"},
			{ID: 2, Outline: 1, Duration: 14400, Name: "Build"},
		},
		Resources:   []LegacyResource{{ID: 1, MaxUnits: 100, Name: "Engineer"}},
		Assignments: []LegacyAssignment{{Task: 1, Resource: 1, Units: 100, Work: 9600}},
		Links:       []LegacyLink{{Pred: 1, Succ: 2, Type: 1}},
	}
}
