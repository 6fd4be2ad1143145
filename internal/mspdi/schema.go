// Package mspdi reads and writes the MSPDI XML interchange schema for project
// schedules. The same document types back both directions; Encode renders a
// domain.Project and Parse loads a document for the XML decoder.
package mspdi

import "encoding/xml"

const (
	// Namespace is the MSPDI default namespace on the root element.
	Namespace = "http://schemas.microsoft.com/project"
	// RootName is the local name of the root element.
	RootName = "Project"

	saveVersion = 14

	// NoCalendarUID marks an absent calendar reference.
	NoCalendarUID = -1
	// UnassignedResourceUID is the placeholder resource on unassigned work.
	UnassignedResourceUID = -65535
)

// Document is the root <Project> element. Field order is element order.
type Document struct {
	XMLName           xml.Name `xml:"http://schemas.microsoft.com/project Project"`
	SaveVersion       *int     `xml:"SaveVersion,omitempty"`
	Name              string   `xml:"Name,omitempty"`
	ScheduleFromStart *int     `xml:"ScheduleFromStart,omitempty"`
	StartDate         string   `xml:"StartDate,omitempty"`
	FinishDate        string   `xml:"FinishDate,omitempty"`
	CalendarUID       *int     `xml:"CalendarUID,omitempty"`
	MinutesPerDay     *int     `xml:"MinutesPerDay,omitempty"`
	MinutesPerWeek    *int     `xml:"MinutesPerWeek,omitempty"`
	DaysPerMonth      *int     `xml:"DaysPerMonth,omitempty"`

	Calendars   CalendarList   `xml:"Calendars"`
	Tasks       TaskList       `xml:"Tasks"`
	Resources   ResourceList   `xml:"Resources"`
	Assignments AssignmentList `xml:"Assignments"`
}

type CalendarList struct {
	Calendars []Calendar `xml:"Calendar"`
}

type Calendar struct {
	UID             *int           `xml:"UID"`
	GUID            string         `xml:"GUID,omitempty"`
	Name            string         `xml:"Name,omitempty"`
	IsBaseCalendar  *int           `xml:"IsBaseCalendar,omitempty"`
	BaseCalendarUID *int           `xml:"BaseCalendarUID,omitempty"`
	WeekDays        *WeekDayList   `xml:"WeekDays,omitempty"`
	Exceptions      *ExceptionList `xml:"Exceptions,omitempty"`
}

type WeekDayList struct {
	WeekDays []WeekDay `xml:"WeekDay"`
}

// WeekDay uses DayType 1..7 for Sunday..Saturday; DayType 0 with a
// TimePeriod is an exception in the pre-2007 form.
type WeekDay struct {
	DayType      int              `xml:"DayType"`
	DayWorking   int              `xml:"DayWorking"`
	TimePeriod   *TimePeriod      `xml:"TimePeriod,omitempty"`
	WorkingTimes *WorkingTimeList `xml:"WorkingTimes,omitempty"`
}

type TimePeriod struct {
	FromDate string `xml:"FromDate"`
	ToDate   string `xml:"ToDate"`
}

type WorkingTimeList struct {
	WorkingTimes []WorkingTime `xml:"WorkingTime"`
}

type WorkingTime struct {
	FromTime string `xml:"FromTime"`
	ToTime   string `xml:"ToTime"`
}

type ExceptionList struct {
	Exceptions []Exception `xml:"Exception"`
}

// Exception is the 2007+ calendar exception form. Only single-period
// exceptions are read; recurrence fields are ignored.
type Exception struct {
	TimePeriod   TimePeriod       `xml:"TimePeriod"`
	Name         string           `xml:"Name,omitempty"`
	DayWorking   int              `xml:"DayWorking"`
	WorkingTimes *WorkingTimeList `xml:"WorkingTimes,omitempty"`
}

type TaskList struct {
	Tasks []Task `xml:"Task"`
}

type Task struct {
	UID              *int              `xml:"UID"`
	GUID             string            `xml:"GUID,omitempty"`
	ID               *int              `xml:"ID,omitempty"`
	Name             string            `xml:"Name,omitempty"`
	OutlineNumber    string            `xml:"OutlineNumber,omitempty"`
	OutlineLevel     *int              `xml:"OutlineLevel,omitempty"`
	Start            string            `xml:"Start,omitempty"`
	Finish           string            `xml:"Finish,omitempty"`
	Duration         string            `xml:"Duration,omitempty"`
	Milestone        *int              `xml:"Milestone,omitempty"`
	Summary          *int              `xml:"Summary,omitempty"`
	PercentComplete  *int              `xml:"PercentComplete,omitempty"`
	CalendarUID      *int              `xml:"CalendarUID,omitempty"`
	PredecessorLinks []PredecessorLink `xml:"PredecessorLink"`
}

type PredecessorLink struct {
	PredecessorUID *int `xml:"PredecessorUID"`
	Type           *int `xml:"Type,omitempty"`
	LinkLag        *int `xml:"LinkLag,omitempty"`
	LagFormat      *int `xml:"LagFormat,omitempty"`
}

type ResourceList struct {
	Resources []Resource `xml:"Resource"`
}

type Resource struct {
	UID         *int   `xml:"UID"`
	GUID        string `xml:"GUID,omitempty"`
	ID          *int   `xml:"ID,omitempty"`
	Name        string `xml:"Name,omitempty"`
	MaxUnits    string `xml:"MaxUnits,omitempty"`
	CalendarUID *int   `xml:"CalendarUID,omitempty"`
}

type AssignmentList struct {
	Assignments []Assignment `xml:"Assignment"`
}

type Assignment struct {
	UID         *int   `xml:"UID"`
	TaskUID     *int   `xml:"TaskUID"`
	ResourceUID *int   `xml:"ResourceUID"`
	Units       string `xml:"Units,omitempty"`
	Work        string `xml:"Work,omitempty"`
}
