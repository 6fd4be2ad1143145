package testutil

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// MinimalXML is an MSPDI document with a summary row, two tasks, one
// resource, one real assignment plus an unassigned placeholder, and the
// default calendar.
const MinimalXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Project xmlns="http://schemas.microsoft.com/project">
  <SaveVersion>14</SaveVersion>
  <Name>Minimal XML</Name>
  <StartDate>2024-03-04T08:00:00</StartDate>
  <FinishDate>2024-03-08T17:00:00</FinishDate>
  <CalendarUID>1</CalendarUID>
  <MinutesPerDay>480</MinutesPerDay>
  <Calendars>
    <Calendar>
      <UID>1</UID>
      <Name>Standard</Name>
      <IsBaseCalendar>1</IsBaseCalendar>
      <BaseCalendarUID>-1</BaseCalendarUID>
      <WeekDays>
        <WeekDay><DayType>1</DayType><DayWorking>0</DayWorking></WeekDay>
        <WeekDay>
          <DayType>2</DayType><DayWorking>1</DayWorking>
          <WorkingTimes>
            <WorkingTime><FromTime>08:00:00</FromTime><ToTime>12:00:00</ToTime></WorkingTime>
            <WorkingTime><FromTime>13:00:00</FromTime><ToTime>17:00:00</ToTime></WorkingTime>
          </WorkingTimes>
        </WeekDay>
        <WeekDay><DayType>7</DayType><DayWorking>0</DayWorking></WeekDay>
        <WeekDay>
          <DayType>0</DayType><DayWorking>0</DayWorking>
          <TimePeriod><FromDate>2024-03-06T00:00:00</FromDate><ToDate>2024-03-06T23:59:00</ToDate></TimePeriod>
        </WeekDay>
      </WeekDays>
    </Calendar>
  </Calendars>
  <Tasks>
    <Task><UID>0</UID><ID>0</ID><Name>Minimal XML</Name><OutlineLevel>0</OutlineLevel></Task>
    <Task>
      <UID>1</UID><ID>1</ID><Name>Design</Name><OutlineLevel>1</OutlineLevel>
      <Start>2024-03-04T08:00:00</Start><Finish>2024-03-05T17:00:00</Finish>
      <Duration>PT16H0M0S</Duration><PercentComplete>25</PercentComplete>
    </Task>
    <Task>
      <UID>2</UID><ID>2</ID><Name>Build</Name><OutlineLevel>2</OutlineLevel>
      <Duration>PT24H0M0S</Duration><Milestone>0</Milestone>
      <PredecessorLink><PredecessorUID>1</PredecessorUID><Type>1</Type><LinkLag>0</LinkLag><LagFormat>7</LagFormat></PredecessorLink>
    </Task>
  </Tasks>
  <Resources>
    <Resource><UID>1</UID><ID>1</ID><Name>Engineer</Name><MaxUnits>1.00</MaxUnits></Resource>
  </Resources>
  <Assignments>
    <Assignment><UID>1</UID><TaskUID>1</TaskUID><ResourceUID>1</ResourceUID><Units>1</Units><Work>PT16H0M0S</Work></Assignment>
    <Assignment><UID>2</UID><TaskUID>2</TaskUID><ResourceUID>-65535</ResourceUID><Units>1</Units></Assignment>
  </Assignments>
</Project>
`

// UTF16 re-encodes an XML document as UTF-16 in the given byte order with a
// leading byte order mark, relabelling a UTF-8 declaration to match.
func UTF16(doc string, order unicode.Endianness) []byte {
	doc = strings.Replace(doc, `encoding="UTF-8"`, `encoding="UTF-16"`, 1)
	out, err := unicode.UTF16(order, unicode.UseBOM).NewEncoder().Bytes([]byte(doc))
	if err != nil {
		panic(err)
	}
	return out
}
