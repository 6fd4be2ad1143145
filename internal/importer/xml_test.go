package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/testutil"
)

func TestXML_MinimalDocument(t *testing.T) {
	res, err := XMLDecoder{}.Decode(strings.NewReader(testutil.MinimalXML))
	require.NoError(t, err)
	p := res.Project

	assert.Empty(t, res.Notes)
	assert.Equal(t, "Minimal XML", p.Properties.Name)
	assert.Equal(t, 1, *p.Properties.DefaultCalendarID)
	assert.Equal(t, 480, p.Properties.MinutesPerDay)
	assert.Equal(t, domain.DefaultMinutesPerWeek, p.Properties.MinutesPerWeek)
	assert.Equal(t, testutil.Date(2024, 3, 4, 8, 0), *p.Properties.StartDate)

	require.Len(t, p.Tasks, 3)
	require.Len(t, p.Resources, 1)
	require.Len(t, p.Calendars, 1)
	require.Len(t, p.Dependencies, 1)
	require.Len(t, p.Assignments, 1, "placeholder assignment is skipped")

	summary, design, build := p.Tasks[0], p.Tasks[1], p.Tasks[2]
	assert.Equal(t, 0, summary.OutlineLevel)
	assert.Nil(t, design.ParentID)
	assert.Equal(t, 25, *design.PercentComplete)
	assert.Equal(t, 960, *design.DurationMin)
	require.NotNil(t, build.ParentID)
	assert.Equal(t, 1, *build.ParentID)
	assert.Equal(t, 1440, *build.DurationMin)
	assert.Nil(t, build.PercentComplete)

	dep := p.Dependencies[0]
	assert.Equal(t, 1, dep.PredecessorID)
	assert.Equal(t, 2, dep.SuccessorID)
	assert.Equal(t, domain.LinkFinishToStart, dep.Type)

	a := p.Assignments[0]
	assert.Equal(t, 1.0, *a.Units)
	assert.Equal(t, 960, *a.WorkMin)

	cal := p.Calendars[0]
	assert.Len(t, cal.WeekDays, 3)
	require.Len(t, cal.Exceptions, 1)
	assert.Equal(t, testutil.Date(2024, 3, 6, 0, 0), cal.Exceptions[0].From)
	assert.False(t, cal.Exceptions[0].Working)
}

func TestXML_LinkDefaultsAndLag(t *testing.T) {
	doc := `<Project xmlns="http://schemas.microsoft.com/project">
  <Tasks>
    <Task><UID>1</UID><Name>A</Name></Task>
    <Task><UID>2</UID><Name>B</Name>
      <PredecessorLink><PredecessorUID>1</PredecessorUID><LinkLag>4800</LinkLag></PredecessorLink>
    </Task>
    <Task><UID>3</UID><Name>C</Name>
      <PredecessorLink><PredecessorUID>2</PredecessorUID><Type>3</Type><LinkLag>-600</LinkLag></PredecessorLink>
      <PredecessorLink><PredecessorUID>9</PredecessorUID></PredecessorLink>
    </Task>
  </Tasks>
</Project>`

	res, err := XMLDecoder{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)

	deps := res.Project.Dependencies
	require.Len(t, deps, 2)
	assert.Equal(t, domain.LinkFinishToStart, deps[0].Type)
	assert.Equal(t, 480, deps[0].LagMin)
	assert.Equal(t, domain.LinkStartToStart, deps[1].Type)
	assert.Equal(t, -60, deps[1].LagMin)
	assert.Equal(t, []domain.NoteCode{domain.NoteDanglingTask}, noteCodes(res.Notes))

	for _, task := range res.Project.Tasks {
		assert.Equal(t, 1, task.OutlineLevel)
		assert.Nil(t, task.ParentID)
	}
	assert.Len(t, res.Project.Calendars, 1, "standard calendar installed")
}

func TestXML_ExceptionsElement(t *testing.T) {
	doc := `<Project xmlns="http://schemas.microsoft.com/project">
  <Calendars>
    <Calendar><UID>1</UID><Name>Base</Name><BaseCalendarUID>-1</BaseCalendarUID></Calendar>
    <Calendar>
      <UID>2</UID><Name>Night</Name><BaseCalendarUID>1</BaseCalendarUID>
      <Exceptions>
        <Exception>
          <TimePeriod><FromDate>2024-05-01T00:00:00</FromDate><ToDate>2024-05-02T23:59:00</ToDate></TimePeriod>
          <Name>Shutdown</Name><DayWorking>1</DayWorking>
          <WorkingTimes><WorkingTime><FromTime>22:00:00</FromTime><ToTime>00:00:00</ToTime></WorkingTime></WorkingTimes>
        </Exception>
      </Exceptions>
    </Calendar>
  </Calendars>
</Project>`

	res, err := XMLDecoder{}.Decode(strings.NewReader(doc))
	require.NoError(t, err)

	cal := res.Project.CalendarByID(2)
	require.NotNil(t, cal)
	assert.Equal(t, 1, *cal.BaseID)
	require.Len(t, cal.Exceptions, 1)
	ex := cal.Exceptions[0]
	assert.Equal(t, "Shutdown", ex.Name)
	assert.Equal(t, testutil.Date(2024, 5, 2, 0, 0), ex.To)
	assert.True(t, ex.Working)
	assert.Equal(t, []domain.WorkingTime{{FromMin: 1320, ToMin: 1440}}, ex.Intervals)
}

func TestXML_CorruptStructure(t *testing.T) {
	wrap := func(tasks string) string {
		return `<Project xmlns="http://schemas.microsoft.com/project"><Tasks>` + tasks + `</Tasks></Project>`
	}

	tests := []struct {
		name string
		doc  string
	}{
		{"syntax error", `<Project xmlns="http://schemas.microsoft.com/project"><Tasks>`},
		{"foreign root", `<Schedule xmlns="http://schemas.microsoft.com/project"></Schedule>`},
		{"missing uid", wrap(`<Task><Name>x</Name></Task>`)},
		{"bad date", wrap(`<Task><UID>1</UID><Start>next tuesday</Start></Task>`)},
		{"bad duration", wrap(`<Task><UID>1</UID><Duration>3 days</Duration></Task>`)},
		{"bad number", wrap(`<Task><UID>one</UID></Task>`)},
		{"bad link type", wrap(`<Task><UID>1</UID></Task><Task><UID>2</UID><PredecessorLink><PredecessorUID>1</PredecessorUID><Type>8</Type></PredecessorLink></Task>`)},
		{"duplicate uid", wrap(`<Task><UID>1</UID></Task><Task><UID>1</UID></Task>`)},
		{"bad day type", `<Project xmlns="http://schemas.microsoft.com/project"><Calendars><Calendar><UID>1</UID>` +
			`<WeekDays><WeekDay><DayType>9</DayType><DayWorking>0</DayWorking></WeekDay></WeekDays></Calendar></Calendars></Project>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := XMLDecoder{}.Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCorruptStructure)
		})
	}
}

func TestOutlineStack(t *testing.T) {
	var s outlineStack
	levels := []int{0, 1, 2, 3, 2, 1, 2}
	var parents []any
	for i, level := range levels {
		p := s.push(i, level)
		if p == nil {
			parents = append(parents, nil)
			continue
		}
		parents = append(parents, *p)
	}
	assert.Equal(t, []any{nil, nil, 1, 2, 1, nil, 5}, parents)
}
