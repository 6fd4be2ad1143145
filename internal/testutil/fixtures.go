package testutil

import (
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/google/uuid"
)

// ConversionRecord options
type RecordOption func(*domain.ConversionRecord)

func WithRecordFailure(stage, kind, message string) RecordOption {
	return func(r *domain.ConversionRecord) {
		r.Status = domain.ConversionFailed
		r.Stage = stage
		r.Kind = kind
		r.Message = message
		r.TaskCount, r.ResourceCount, r.CalendarCount = 0, 0, 0
		r.OutputBytes = 0
	}
}

func WithRecordFormat(f string) RecordOption {
	return func(r *domain.ConversionRecord) {
		r.Format = f
	}
}

func WithRecordCreatedAt(t time.Time) RecordOption {
	return func(r *domain.ConversionRecord) {
		r.CreatedAt = t
	}
}

func WithRecordCounts(tasks, resources, calendars int) RecordOption {
	return func(r *domain.ConversionRecord) {
		r.TaskCount = tasks
		r.ResourceCount = resources
		r.CalendarCount = calendars
	}
}

func NewTestRecord(filename string, opts ...RecordOption) *domain.ConversionRecord {
	r := &domain.ConversionRecord{
		ID:            uuid.New().String(),
		Filename:      filename,
		Format:        "legacy_binary",
		Status:        domain.ConversionSucceeded,
		TaskCount:     2,
		ResourceCount: 1,
		CalendarCount: 1,
		ElapsedMs:     3,
		InputBytes:    512,
		OutputBytes:   2048,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Date returns a UTC minute-precision time.
func Date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

// NewTestProject builds a small valid model: two tasks under one summary,
// one resource assigned to the first task, the standard calendar.
func NewTestProject(name string) *domain.Project {
	p := domain.NewProject(name)
	start := Date(2024, 3, 4, 8, 0)
	finish := Date(2024, 3, 8, 17, 0)
	p.Properties.StartDate = &start
	p.Properties.FinishDate = &finish
	p.Properties.DefaultCalendarID = domain.Ptr(1)
	p.Calendars = []*domain.Calendar{domain.StandardCalendar(1)}
	p.Tasks = []*domain.Task{
		{ID: 1, Name: "Design", OutlineLevel: 1, Start: &start, DurationMin: domain.Ptr(960)},
		{ID: 2, Name: "Build", OutlineLevel: 1, Finish: &finish, DurationMin: domain.Ptr(1440)},
	}
	p.Resources = []*domain.Resource{{ID: 1, Name: "Engineer", MaxUnits: domain.Ptr(1.0)}}
	p.Assignments = []*domain.Assignment{{TaskID: 1, ResourceID: 1, Units: domain.Ptr(1.0), WorkMin: domain.Ptr(960)}}
	p.Dependencies = []*domain.Dependency{{PredecessorID: 1, SuccessorID: 2, Type: domain.LinkFinishToStart}}
	return p
}
